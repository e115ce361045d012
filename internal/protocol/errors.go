package protocol

import "fmt"

// ErrInvalidCommand reports a command line the builder refused: unknown verb
// or kind, wrong argument count, or a malformed token. Usage carries the
// syntax line for the verb when one applies.
type ErrInvalidCommand struct {
	Reason string
	Usage  string
}

func (e *ErrInvalidCommand) Error() string {
	return "invalid command: " + e.Reason
}

// ErrPayloadUnavailable reports a push whose file payload could not be read.
// No packet is produced and no sequence number is consumed.
type ErrPayloadUnavailable struct {
	Path string
	Err  error
}

func (e *ErrPayloadUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payload %s unavailable: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("payload %s unavailable", e.Path)
}

func (e *ErrPayloadUnavailable) Unwrap() error {
	return e.Err
}

// ErrMalformedHeader reports an incoming packet shorter than the fixed
// header. Nothing can be decoded from it.
type ErrMalformedHeader struct {
	Length int
}

func (e *ErrMalformedHeader) Error() string {
	return fmt.Sprintf("malformed header: %d bytes, need %d", e.Length, headerSize)
}

// ErrInvalidStatusByte reports a status byte outside the table. The rest of
// the packet still decodes; only the status is missing from the record.
type ErrInvalidStatusByte struct {
	Byte byte
}

func (e *ErrInvalidStatusByte) Error() string {
	return fmt.Sprintf("invalid status byte 0x%02x", e.Byte)
}
