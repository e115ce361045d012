package transport

import (
	"bytes"

	"github.com/orp-io/orp/internal/logger"
)

const (
	atSendPrefix = `AT+ORP="`
	atSendSuffix = "\"\r\n"
	atRecvPrefix = "+ORP: "
)

// maxLineSize bounds the pending line buffer against a peer that never
// terminates a line.
const maxLineSize = 4096

// AT frames packets as modem commands: outgoing packets become
// AT+ORP="<packet>" lines, incoming packets arrive on +ORP: lines. The
// modem echoes our own commands back, so echo lines are recognized and
// discarded. Line based by construction, this framing cannot carry packets
// containing CR or LF; the HDLC framing has no such restriction.
type AT struct {
	logger logger.Logger
	// wire samples the per-line debug logs; modems emit unsolicited
	// result codes between frames.
	wire *logger.SampledLogger
	buf  []byte
}

// NewAT returns a framer with an empty line buffer.
func NewAT(log logger.Logger) *AT {
	scoped := log.WithField("framing", FramingAT)
	return &AT{logger: scoped, wire: logger.NewWireLogger(scoped)}
}

// Name returns the configuration name of this framing.
func (a *AT) Name() string {
	return FramingAT
}

// Preamble returns nil: the modem parses AT commands without one.
func (a *AT) Preamble(count int) []byte {
	return nil
}

// Frame wraps one packet as an AT command terminated by CRLF.
func (a *AT) Frame(pkt []byte) []byte {
	out := make([]byte, 0, len(atSendPrefix)+len(pkt)+len(atSendSuffix))
	out = append(out, atSendPrefix...)
	out = append(out, pkt...)
	return append(out, atSendSuffix...)
}

// Feed consumes raw bytes and returns the packets found on completed lines.
// Lines may end in CR, LF or both.
func (a *AT) Feed(chunk []byte) [][]byte {
	a.buf = append(a.buf, chunk...)

	var pkts [][]byte
	for {
		end := bytes.IndexAny(a.buf, "\r\n")
		if end < 0 {
			break
		}
		line := a.buf[:end]
		a.buf = a.buf[end+1:]
		if pkt, ok := a.decodeLine(line); ok {
			pkts = append(pkts, pkt)
		}
	}

	if len(a.buf) > maxLineSize {
		framingErrorsTotal.WithLabelValues(FramingAT, "line_too_long").Inc()
		a.logger.WithField("buffered", len(a.buf)).Warn("Unterminated line, discarding buffer")
		a.buf = a.buf[:0]
	}
	return pkts
}

func (a *AT) decodeLine(line []byte) ([]byte, bool) {
	switch {
	case len(line) == 0:
		return nil, false

	case bytes.HasPrefix(line, []byte(atSendPrefix)):
		// Our own command echoed back by the modem.
		return nil, false

	case bytes.HasPrefix(line, []byte(atRecvPrefix)):
		pkt := make([]byte, len(line)-len(atRecvPrefix))
		copy(pkt, line[len(atRecvPrefix):])
		return pkt, true

	default:
		a.wire.DebugWithCategory(logger.CategoryFraming, "Ignoring unrecognized line", logger.Fields{"line": string(line)})
		return nil, false
	}
}
