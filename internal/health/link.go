package health

import (
	"context"
	"fmt"
)

// LinkProbe reports the state of the serial link owned by a session.
type LinkProbe interface {
	// Device returns the device path the link is configured for.
	Device() string
	// Connected reports whether the link is currently open.
	Connected() bool
}

// LinkChecker checks that the serial link is open.
type LinkChecker struct {
	probe LinkProbe
	name  string
}

// NewLinkChecker creates a new serial link health checker.
func NewLinkChecker(probe LinkProbe) *LinkChecker {
	return &LinkChecker{
		probe: probe,
		name:  "link",
	}
}

// Name returns the name of the checker.
func (l *LinkChecker) Name() string {
	return l.name
}

// Check performs the link health check.
func (l *LinkChecker) Check(ctx context.Context) error {
	if l.probe == nil {
		return fmt.Errorf("no link probe configured")
	}

	if !l.probe.Connected() {
		return fmt.Errorf("serial link to %s is down", l.probe.Device())
	}

	return nil
}
