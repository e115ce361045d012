package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceChecker(t *testing.T) {
	checker := NewDeviceChecker("/dev/ttyUSB0")

	assert.NotNil(t, checker)
	assert.Equal(t, "/dev/ttyUSB0", checker.device)
}

func TestDeviceChecker_Name(t *testing.T) {
	checker := NewDeviceChecker("/dev/ttyUSB0")
	assert.Equal(t, "device", checker.Name())
}

func TestDeviceChecker_Check_EmptyDevice(t *testing.T) {
	checker := NewDeviceChecker("")

	err := checker.Check(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no serial device configured")
}

func TestDeviceChecker_Check_MissingDevice(t *testing.T) {
	checker := NewDeviceChecker("/dev/ttyDOESNOTEXIST")

	err := checker.Check(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestDeviceChecker_Check_StatFallback(t *testing.T) {
	// A plain file is not an enumerable serial port but must pass the
	// stat fallback, like a pty or a by-id symlink would
	dir := t.TempDir()
	dev := filepath.Join(dir, "ttyV0")
	require.NoError(t, os.WriteFile(dev, nil, 0600))

	checker := NewDeviceChecker(dev)

	err := checker.Check(context.Background())
	assert.NoError(t, err)
}
