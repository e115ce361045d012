// Package transport carries ORP packets over a serial byte stream. It owns
// the port adapter, the two wire framings (HDLC-style and AT command), the
// link that binds a port to a framer, and the reconnect loop that re-opens
// a dropped device.
package transport

import (
	"fmt"

	"github.com/orp-io/orp/internal/logger"
)

// Framing mode names accepted in configuration.
const (
	FramingHDLC = "hdlc"
	FramingAT   = "at"
)

// Framer converts between packets and the raw byte stream. Frame wraps one
// outgoing packet; Feed consumes an arbitrary read chunk and returns the
// packets whose frames completed inside it. Feed keeps state across calls,
// so a single Framer must not be shared between links. Preamble returns
// count wake-up bytes to write ahead of a frame, or nil if the framing
// needs none.
type Framer interface {
	Name() string
	Frame(pkt []byte) []byte
	Feed(chunk []byte) [][]byte
	Preamble(count int) []byte
}

// NewFramer builds the framer for a configured mode name.
func NewFramer(mode string, log logger.Logger) (Framer, error) {
	switch mode {
	case FramingHDLC:
		return NewHDLC(log), nil
	case FramingAT:
		return NewAT(log), nil
	default:
		return nil, fmt.Errorf("unknown framing mode %q", mode)
	}
}
