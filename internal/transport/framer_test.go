package transport

import (
	"testing"

	"github.com/orp-io/orp/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFramer(t *testing.T) {
	log := logger.NewNullLogger()

	tests := []struct {
		name     string
		mode     string
		wantName string
		wantErr  bool
	}{
		{"hdlc framing", FramingHDLC, "hdlc", false},
		{"at framing", FramingAT, "at", false},
		{"unknown mode", "kermit", "", true},
		{"empty mode", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framer, err := NewFramer(tt.mode, log)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, framer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, framer.Name())
		})
	}
}
