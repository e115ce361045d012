package protocol

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// byte1Placeholder fills the data type position for requests that do not
// carry one (delete, add, get).
const byte1Placeholder = '.'

// payloadScheme marks push data that should be read from a local file
// instead of being sent verbatim.
const payloadScheme = "file://"

// syntax lines, indexed by verb, shown on invalid commands and by the
// console help.
var usageLines = []string{
	"  create input|output|sensor  trig|bool|num|str|json <path> [<units>]",
	"  delete resource|handler|sensor <path>",
	"  add handler <path>",
	"  push trig|bool|num|str|json <path> <timestamp> [<data>] (note: if <timestamp> = 0, current timestamp will be used)",
	"  get <path>",
	"  example json <path> [<data>]",
	"  reply B|C|y <status>",
	"  send <raw packet content>",
}

const (
	usageCreate = iota
	usageDelete
	usageAdd
	usagePush
	usageGet
	usageExample
	usageReply
	usageSend
)

// Usage returns the full command syntax summary.
func Usage() string {
	return "Usage:\n" + strings.Join(usageLines, "\n")
}

// PayloadSource resolves file payloads referenced by push commands. Paths
// are local names, already stripped of the file:// scheme.
type PayloadSource interface {
	Exists(path string) bool
	ReadAll(path string) ([]byte, error)
}

// Builder turns command lines into outgoing packets. Every successfully
// built packet consumes one number from the shared sequencer; rejected
// commands consume nothing.
type Builder struct {
	seq      *Sequencer
	payloads PayloadSource
}

// NewBuilder returns a builder drawing sequence numbers from seq. payloads
// may be nil, in which case file payloads are reported unavailable.
func NewBuilder(seq *Sequencer, payloads PayloadSource) *Builder {
	return &Builder{seq: seq, payloads: payloads}
}

// Encode parses one command line and builds the packet for it. The verb is
// the first word, matched case-insensitively against the closed set; kinds
// and data types are matched the same way, so a typo is rejected instead of
// silently selecting the nearest request. The send verb is the escape hatch:
// its remainder becomes the packet verbatim, with no sequence number
// consumed.
func (b *Builder) Encode(line string) ([]byte, error) {
	verb, rest, ok := strings.Cut(line, " ")
	if !ok || strings.TrimSpace(rest) == "" {
		return nil, &ErrInvalidCommand{Reason: "every command takes arguments", Usage: Usage()}
	}

	switch strings.ToLower(verb) {
	case "create":
		return b.encodeCreate(rest)
	case "delete":
		return b.encodeDelete(rest)
	case "add":
		return b.encodeAdd(rest)
	case "push":
		return b.encodePush(rest)
	case "get":
		return b.encodeGet(rest)
	case "example":
		return b.encodeExample(rest)
	case "reply":
		return b.encodeReply(rest)
	case "send":
		return []byte(rest), nil
	default:
		return nil, &ErrInvalidCommand{Reason: "unknown verb " + strconv.Quote(verb), Usage: Usage()}
	}
}

// Ack builds an acknowledgment packet: type byte, literal status byte,
// sequence number, no tail. Shared by the reply verb and the auto responder.
func (b *Builder) Ack(kind PacketType, status byte) ([]byte, error) {
	switch kind {
	case TypeSyncAck, TypeHandlerCallAck, TypeSensorCallAck:
	default:
		return nil, &ErrInvalidCommand{Reason: "not an acknowledgment type: " + kind.String(), Usage: usageLines[usageReply]}
	}
	return b.header(kind, status), nil
}

// header assembles the fixed packet prefix and consumes the next sequence
// number. Callers must finish all validation first.
func (b *Builder) header(t PacketType, byte1 byte) []byte {
	pkt := make([]byte, 0, headerSize+32)
	pkt = append(pkt, byte(t), byte1)
	return binary.BigEndian.AppendUint16(pkt, b.seq.Next())
}

func (b *Builder) encodeCreate(rest string) ([]byte, error) {
	args := strings.Fields(rest)
	if len(args) < 3 || len(args) > 4 {
		return nil, invalid("create takes a kind, a data type, a path and optional units", usageCreate)
	}

	var t PacketType
	switch strings.ToLower(args[0]) {
	case "input":
		t = TypeInputCreate
	case "output":
		t = TypeOutputCreate
	case "sensor":
		t = TypeSensorCreate
	default:
		return nil, invalid("unknown create kind "+strconv.Quote(args[0]), usageCreate)
	}

	dt, ok := DataTypeFromName(strings.ToLower(args[1]))
	if !ok {
		return nil, invalid("unknown data type "+strconv.Quote(args[1]), usageCreate)
	}

	pkt := b.header(t, byte(dt))
	pkt = appendField(pkt, TagPath, args[2])
	if len(args) == 4 {
		pkt = appendField(pkt, TagUnits, args[3])
	}
	return pkt, nil
}

func (b *Builder) encodeDelete(rest string) ([]byte, error) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return nil, invalid("delete takes a kind and a path", usageDelete)
	}

	var t PacketType
	switch strings.ToLower(args[0]) {
	case "resource":
		t = TypeDelete
	case "handler":
		t = TypeHandlerRemove
	case "sensor":
		t = TypeSensorRemove
	default:
		return nil, invalid("unknown delete kind "+strconv.Quote(args[0]), usageDelete)
	}

	pkt := b.header(t, byte1Placeholder)
	return appendField(pkt, TagPath, args[1]), nil
}

func (b *Builder) encodeAdd(rest string) ([]byte, error) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return nil, invalid("add takes a kind and a path", usageAdd)
	}
	if strings.ToLower(args[0]) != "handler" {
		return nil, invalid("unknown add kind "+strconv.Quote(args[0]), usageAdd)
	}

	pkt := b.header(TypeHandlerAdd, byte1Placeholder)
	return appendField(pkt, TagPath, args[1]), nil
}

// encodePush handles the only verb with a payload. The data remainder is
// kept verbatim, spaces included. A timestamp of "0" stands for "now" and is
// left off the wire so the server stamps the sample itself.
func (b *Builder) encodePush(rest string) ([]byte, error) {
	parts := strings.SplitN(rest, " ", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, invalid("push takes a data type, a path and a timestamp", usagePush)
	}

	dt, ok := DataTypeFromName(strings.ToLower(parts[0]))
	if !ok {
		return nil, invalid("unknown data type "+strconv.Quote(parts[0]), usagePush)
	}
	path, timestamp := parts[1], parts[2]

	var data string
	hasData := len(parts) == 4 && parts[3] != ""
	if hasData {
		data = parts[3]
		if strings.HasPrefix(data, payloadScheme) {
			read, err := b.readPayload(strings.TrimPrefix(data, payloadScheme))
			if err != nil {
				return nil, err
			}
			data = read
		}
	}

	pkt := b.header(TypePush, byte(dt))
	pkt = appendField(pkt, TagPath, path)
	if timestamp != "0" {
		pkt = appendField(pkt, TagTime, timestamp)
	}
	if hasData {
		pkt = appendField(pkt, TagData, data)
	}
	return pkt, nil
}

// encodeGet treats the whole remainder as the path, spaces included.
func (b *Builder) encodeGet(rest string) ([]byte, error) {
	pkt := b.header(TypeGet, byte1Placeholder)
	return appendField(pkt, TagPath, rest), nil
}

func (b *Builder) encodeExample(rest string) ([]byte, error) {
	parts := strings.SplitN(rest, " ", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, invalid("example takes a data type and a path", usageExample)
	}

	dt, ok := DataTypeFromName(strings.ToLower(parts[0]))
	if !ok {
		return nil, invalid("unknown data type "+strconv.Quote(parts[0]), usageExample)
	}

	pkt := b.header(TypeExampleSet, byte(dt))
	pkt = appendField(pkt, TagPath, parts[1])
	if len(parts) == 3 && parts[2] != "" {
		pkt = appendField(pkt, TagData, parts[2])
	}
	return pkt, nil
}

// encodeReply validates the kind case-sensitively: the ack types are
// uppercase siblings of the lowercase notifications, so folding here would
// alias them.
func (b *Builder) encodeReply(rest string) ([]byte, error) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return nil, invalid("reply takes a kind and a status", usageReply)
	}

	var t PacketType
	switch args[0] {
	case "y":
		t = TypeSyncAck
	case "C":
		t = TypeHandlerCallAck
	case "B":
		t = TypeSensorCallAck
	default:
		return nil, invalid("unknown reply kind "+strconv.Quote(args[0]), usageReply)
	}
	if len(args[1]) != 1 {
		return nil, invalid("status must be a single byte", usageReply)
	}
	return b.Ack(t, args[1][0])
}

func (b *Builder) readPayload(name string) (string, error) {
	if b.payloads == nil || !b.payloads.Exists(name) {
		return "", &ErrPayloadUnavailable{Path: name}
	}
	data, err := b.payloads.ReadAll(name)
	if err != nil {
		return "", &ErrPayloadUnavailable{Path: name, Err: err}
	}
	return string(data), nil
}

func invalid(reason string, verb int) *ErrInvalidCommand {
	return &ErrInvalidCommand{Reason: reason, Usage: usageLines[verb]}
}
