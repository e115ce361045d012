// Package console implements the interactive prompt: it reads command
// lines, hands them to the session, and renders sent packets, decoded
// records and receipt notices between prompts.
package console

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/orp-io/orp/internal/client"
	"github.com/orp-io/orp/internal/config"
	"github.com/orp-io/orp/internal/logger"
	"github.com/orp-io/orp/internal/protocol"
)

// maxTailDisplay bounds how much of a packet tail is echoed to the
// terminal; pushed file payloads can run to kilobytes.
const maxTailDisplay = 75

// quitCommand exits the console loop.
const quitCommand = "q"

// Executor runs one command line and returns the packet that was sent.
type Executor interface {
	Execute(ctx context.Context, line string) ([]byte, error)
}

// Console is the interactive command loop. Decoded packets arrive
// asynchronously through HandleEvent and are rendered between prompts.
type Console struct {
	cfg    *config.Config
	exec   Executor
	in     io.Reader
	out    io.Writer
	styles Styles
	logger logger.Logger

	// mu serializes terminal writes: the receive goroutine renders
	// records while the loop owns the prompt.
	mu sync.Mutex
}

// New creates a console reading commands from in and rendering to out.
func New(cfg *config.Config, exec Executor, in io.Reader, out io.Writer, log logger.Logger) *Console {
	return &Console{
		cfg:    cfg,
		exec:   exec,
		in:     in,
		out:    out,
		styles: NewStyles(cfg.Console.Color),
		logger: log.WithField("component", "console"),
	}
}

// Run prints the banner and processes commands until the user quits, the
// input closes, or the context is cancelled.
func (c *Console) Run(ctx context.Context) error {
	c.printBanner()

	lines := make(chan string)
	go c.readLines(lines)

	for {
		c.showPrompt()

		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// Input closed; a piped command file just ran out.
				fmt.Fprintln(c.out)
				return nil
			}

			line = strings.TrimSpace(line)
			switch line {
			case "":
			case quitCommand:
				fmt.Fprintln(c.out, "exiting")
				return nil
			default:
				c.execute(ctx, line)
			}
		}
	}
}

// HandleEvent renders one received packet. Called on the session's receive
// goroutine, so all writes go through the terminal lock.
func (c *Console) HandleEvent(ev client.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteByte('\n')
	writeLine(&b, c.styles, "Received", formatPacket(ev.Raw))

	if ev.Record != nil {
		c.writeRecord(&b, ev.Record)
	}
	if ev.Err != nil {
		b.WriteString(c.styles.Error.Render("Decode error : "+ev.Err.Error()) + "\n")
	}
	if notice := ackNotice(ev.AutoAck); notice != "" {
		b.WriteString(c.styles.Notice.Render(notice) + "\n")
	}

	fmt.Fprint(c.out, b.String())
	c.writePrompt()
}

func (c *Console) readLines(lines chan<- string) {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		c.logger.WithError(err).Warn("Console input failed")
	}
	close(lines)
}

func (c *Console) execute(ctx context.Context, line string) {
	pkt, err := c.exec.Execute(ctx, line)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.writeCommandError(err)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n",
		c.styles.Label.Render(label("Sending")),
		c.styles.Sent.Render(formatPacket(pkt)))
}

func (c *Console) writeCommandError(err error) {
	var cmdErr *protocol.ErrInvalidCommand
	if errors.As(err, &cmdErr) {
		fmt.Fprintln(c.out, c.styles.Error.Render("Invalid command: "+cmdErr.Reason))
		if cmdErr.Usage != "" {
			fmt.Fprintln(c.out, c.styles.Usage.Render(cmdErr.Usage))
		}
		return
	}

	var payloadErr *protocol.ErrPayloadUnavailable
	if errors.As(err, &payloadErr) {
		fmt.Fprintln(c.out, c.styles.Warn.Render(payloadErr.Error()))
		return
	}

	fmt.Fprintln(c.out, c.styles.Error.Render(err.Error()))
}

func (c *Console) writeRecord(b *strings.Builder, rec *protocol.Record) {
	if rec.Known {
		writeLine(b, c.styles, "Message type", rec.Description)
	}
	if rec.Version != "" {
		writeLine(b, c.styles, "Version", printable(rec.Version))
	}
	if rec.HasStatus {
		writeLine(b, c.styles, "Status", rec.Status.String())
	}
	writeLine(b, c.styles, "Sequence", fmt.Sprintf("%d", rec.Sequence))

	if rec.Path != "" {
		writeLine(b, c.styles, "Path", rec.Path)
	}
	if rec.Timestamp != "" {
		writeLine(b, c.styles, "Timestamp", rec.Timestamp)
	}
	if rec.Units != "" {
		writeLine(b, c.styles, "Units", rec.Units)
	}
	if rec.HasData {
		writeLine(b, c.styles, "Data", truncate(printable(rec.Data)))
	}
	if rec.Sent != "" {
		writeLine(b, c.styles, "Peer sent", rec.Sent)
	}
	if rec.Received != "" {
		writeLine(b, c.styles, "Peer received", rec.Received)
	}
}

func (c *Console) printBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, c.styles.Banner.Render(fmt.Sprintf("ORP serial client, %q to exit", quitCommand)))
	fmt.Fprintln(c.out, c.styles.Value.Render(fmt.Sprintf(
		"device %s, %d baud, 8N1, %s framing",
		c.cfg.Serial.Device, c.cfg.Serial.Baud, c.cfg.Framing.Mode)))
	if !c.cfg.Client.AutoAck {
		fmt.Fprintln(c.out, c.styles.Warn.Render("auto-acknowledgements disabled"))
	}
	fmt.Fprintln(c.out, c.styles.Value.Render("enter commands"))
	fmt.Fprintln(c.out)
}

func (c *Console) showPrompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writePrompt()
}

// writePrompt writes the prompt without a trailing newline. Callers hold mu.
func (c *Console) writePrompt() {
	fmt.Fprint(c.out, c.styles.Prompt.Render(c.cfg.Console.Prompt))
}

// writeLine appends one "Label        : value" row.
func writeLine(b *strings.Builder, s Styles, name, value string) {
	b.WriteString(s.Label.Render(label(name)))
	b.WriteByte(' ')
	b.WriteString(s.Value.Render(value))
	b.WriteByte('\n')
}

func label(name string) string {
	return fmt.Sprintf("%-13s:", name)
}

// ackNotice says what was just acknowledged automatically.
func ackNotice(t protocol.PacketType) string {
	switch t {
	case protocol.TypeSyncAck:
		return "Service restarted, sync acknowledged"
	case protocol.TypeHandlerCallAck:
		return "Acknowledged push notification"
	case protocol.TypeSensorCallAck:
		return "Acknowledged sensor notification"
	}
	return ""
}

// formatPacket renders a packet one-line: header characters, decoded
// sequence number, then the tail. Anything shorter than a header, such as
// a raw send, is shown quoted.
func formatPacket(pkt []byte) string {
	if len(pkt) < 4 {
		return fmt.Sprintf("%q", pkt)
	}

	out := fmt.Sprintf("%c%c seq=%d",
		printableByte(pkt[0]), printableByte(pkt[1]),
		binary.BigEndian.Uint16(pkt[2:4]))
	if tail := truncate(printable(string(pkt[4:]))); tail != "" {
		out += " " + tail
	}
	return out
}

func truncate(s string) string {
	if len(s) > maxTailDisplay {
		return s[:maxTailDisplay] + ".."
	}
	return s
}

// printable masks control and non-ASCII bytes so binary payloads cannot
// garble the terminal.
func printable(s string) string {
	b := []byte(s)
	for i, c := range b {
		b[i] = printableByte(c)
	}
	return string(b)
}

func printableByte(c byte) byte {
	if c < 0x20 || c > 0x7e {
		return '.'
	}
	return c
}
