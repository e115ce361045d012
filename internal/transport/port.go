package transport

import "time"

// Port abstracts the serial device implementation
// This allows tests to run against an in-memory device without touching real hardware
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error

	// SetReadTimeout bounds how long Read blocks. A Read that times out
	// returns (0, nil) so the caller can poll for cancellation.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards bytes received but not yet read, clearing
	// stale device chatter before a session starts.
	ResetInputBuffer() error
}

// Opener opens a serial device by name
type Opener interface {
	Open(device string, baud int) (Port, error)
}

// LinkStats provides statistics about a serial link
type LinkStats struct {
	BytesSent       int64
	BytesReceived   int64
	PacketsSent     int64
	PacketsReceived int64
}
