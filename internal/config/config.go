package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Framing FramingConfig `mapstructure:"framing"`
	Client  ClientConfig  `mapstructure:"client"`
	Console ConsoleConfig `mapstructure:"console"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	API     APIConfig     `mapstructure:"api"`
}

type SerialConfig struct {
	Device      string        `mapstructure:"device"`       // e.g. /dev/ttyUSB0 or COM3
	Baud        int           `mapstructure:"baud"`         // 8N1 is fixed
	ReadTimeout time.Duration `mapstructure:"read_timeout"` // per-chunk read timeout
}

type FramingConfig struct {
	Mode      string        `mapstructure:"mode"`       // hdlc or at
	Preamble  int           `mapstructure:"preamble"`   // wake-up flag bytes before each frame
	SendDelay time.Duration `mapstructure:"send_delay"` // pause after preamble and frame
}

type ClientConfig struct {
	AutoAck  bool         `mapstructure:"auto_ack"`  // answer sync and notification packets
	SendRate float64      `mapstructure:"send_rate"` // packets per second, 0 disables pacing
	Redial   RedialConfig `mapstructure:"redial"`
}

type RedialConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	MaxRetries   int           `mapstructure:"max_retries"` // 0 retries forever
}

type ConsoleConfig struct {
	Prompt string `mapstructure:"prompt"`
	Color  bool   `mapstructure:"color"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`     // json or text
	Output     string `mapstructure:"output"`     // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"`   // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type APIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("ORP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given: all
// defaults applied, the serial device left for a flag to fill in.
func Default() *Config {
	v := viper.New()
	setDefaultsOn(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; unmarshalling them cannot fail.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

func setDefaults() {
	setDefaultsOn(nil)
}

// setDefaultsOn applies defaults to v, or to the global viper when v is nil.
func setDefaultsOn(v *viper.Viper) {
	set := viper.SetDefault
	if v != nil {
		set = v.SetDefault
	}

	// Serial defaults
	set("serial.baud", 9600)
	set("serial.read_timeout", "100ms")

	// Framing defaults
	set("framing.mode", "hdlc")
	set("framing.preamble", 2)
	set("framing.send_delay", "100ms")

	// Client defaults
	set("client.auto_ack", true)
	set("client.send_rate", 0.0)
	set("client.redial.enabled", true)
	set("client.redial.initial_delay", "1s")
	set("client.redial.max_delay", "30s")
	set("client.redial.multiplier", 2.0)
	set("client.redial.max_retries", 0)

	// Console defaults
	set("console.prompt", "> ")
	set("console.color", true)

	// Logging defaults
	set("logging.level", "info")
	set("logging.format", "text")
	set("logging.output", "stderr")
	set("logging.max_size", 100)
	set("logging.max_backups", 5)
	set("logging.max_age", 30)

	// Metrics defaults
	set("metrics.enabled", false)
	set("metrics.path", "/metrics")
	set("metrics.port", 9090)

	// API defaults
	set("api.enabled", false)
	set("api.port", 8080)
	set("api.read_timeout", "30s")
	set("api.write_timeout", "30s")
	set("api.shutdown_timeout", "10s")
}
