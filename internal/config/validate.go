package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("serial config: %w", err)
	}

	if err := c.Framing.Validate(); err != nil {
		return fmt.Errorf("framing config: %w", err)
	}

	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api config: %w", err)
	}

	// Cross-section check: the metrics and API listeners cannot share a port
	if c.Metrics.Enabled && c.API.Enabled && c.Metrics.Port == c.API.Port {
		return fmt.Errorf("metrics port (%d) and api port (%d) must differ", c.Metrics.Port, c.API.Port)
	}

	return nil
}

func (s *SerialConfig) Validate() error {
	// The device may be left empty in the file and supplied by flag; the
	// binary checks for it before dialing.
	if s.Baud <= 0 {
		return fmt.Errorf("baud must be positive")
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	return nil
}

func (f *FramingConfig) Validate() error {
	if f.Mode != "hdlc" && f.Mode != "at" {
		return fmt.Errorf("framing mode must be 'hdlc' or 'at'")
	}

	if f.Preamble < 0 {
		return fmt.Errorf("preamble cannot be negative")
	}

	if f.SendDelay < 0 {
		return fmt.Errorf("send_delay cannot be negative")
	}

	return nil
}

func (c *ClientConfig) Validate() error {
	if c.SendRate < 0 {
		return fmt.Errorf("send_rate cannot be negative")
	}

	if err := c.Redial.Validate(); err != nil {
		return fmt.Errorf("redial config: %w", err)
	}

	return nil
}

func (r *RedialConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	if r.InitialDelay <= 0 {
		return fmt.Errorf("initial_delay must be positive")
	}

	if r.MaxDelay < r.InitialDelay {
		return fmt.Errorf("max_delay (%s) cannot be less than initial_delay (%s)", r.MaxDelay, r.InitialDelay)
	}

	if r.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be at least 1.0")
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		// If it's a file path, check the rotation settings
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}

func (a *APIConfig) Validate() error {
	if !a.Enabled {
		return nil
	}

	if a.Port < 1 || a.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", a.Port)
	}

	if a.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if a.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if a.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	return nil
}
