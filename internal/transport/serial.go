package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialOpener opens real serial devices through go.bug.st/serial.
// Devices are configured 8N1, matching the modems the protocol targets.
type SerialOpener struct{}

// NewSerialOpener creates an opener for real serial devices
func NewSerialOpener() *SerialOpener {
	return &SerialOpener{}
}

// Open opens the named device at the given baud rate
func (o *SerialOpener) Open(device string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial device %s: %w", device, err)
	}
	return port, nil
}
