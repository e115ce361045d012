package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPortCollisionValidation tests the metrics/api listener port cross-check
func TestPortCollisionValidation(t *testing.T) {
	tests := []struct {
		name           string
		metricsEnabled bool
		metricsPort    int
		apiEnabled     bool
		apiPort        int
		expectError    bool
		errorContains  string
	}{
		{
			name:           "Valid: distinct ports",
			metricsEnabled: true,
			metricsPort:    9090,
			apiEnabled:     true,
			apiPort:        8080,
			expectError:    false,
		},
		{
			name:           "Invalid: both listeners on one port",
			metricsEnabled: true,
			metricsPort:    8080,
			apiEnabled:     true,
			apiPort:        8080,
			expectError:    true,
			errorContains:  "metrics port (8080) and api port (8080) must differ",
		},
		{
			name:           "Valid: same port but metrics disabled",
			metricsEnabled: false,
			metricsPort:    8080,
			apiEnabled:     true,
			apiPort:        8080,
			expectError:    false,
		},
		{
			name:           "Valid: same port but api disabled",
			metricsEnabled: true,
			metricsPort:    8080,
			apiEnabled:     false,
			apiPort:        8080,
			expectError:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Serial.Device = "/dev/ttyUSB0"
			cfg.Metrics.Enabled = tt.metricsEnabled
			cfg.Metrics.Port = tt.metricsPort
			cfg.API.Enabled = tt.apiEnabled
			cfg.API.Port = tt.apiPort

			err := cfg.Validate()

			if tt.expectError {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPortCollisionMessageNamesBothPorts(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9999
	cfg.API.Enabled = true
	cfg.API.Port = 9999

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("(%d)", 9999))
}
