package health

import (
	"context"
	"fmt"
	"os"

	"go.bug.st/serial"
)

// DeviceChecker checks that the configured serial device is present on the
// host.
type DeviceChecker struct {
	device string
}

// NewDeviceChecker creates a health checker for a serial device path.
func NewDeviceChecker(device string) *DeviceChecker {
	return &DeviceChecker{device: device}
}

// Name returns the name of the checker.
func (d *DeviceChecker) Name() string {
	return "device"
}

// Check performs the serial device check.
func (d *DeviceChecker) Check(ctx context.Context) error {
	if d.device == "" {
		return fmt.Errorf("no serial device configured")
	}

	// Port enumeration covers real UARTs. The stat fallback covers
	// symlinked names (/dev/serial/by-id) and the ptys used in testing,
	// which the enumeration does not list.
	ports, err := serial.GetPortsList()
	if err == nil {
		for _, p := range ports {
			if p == d.device {
				return nil
			}
		}
	}

	if _, statErr := os.Stat(d.device); statErr != nil {
		return fmt.Errorf("serial device %s not present: %w", d.device, statErr)
	}

	return nil
}
