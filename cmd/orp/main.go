package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/orp-io/orp/internal/client"
	"github.com/orp-io/orp/internal/config"
	"github.com/orp-io/orp/internal/console"
	"github.com/orp-io/orp/internal/logger"
	"github.com/orp-io/orp/internal/payload"
	"github.com/orp-io/orp/internal/server"
	"github.com/orp-io/orp/internal/transport"
	"github.com/orp-io/orp/pkg/version"
)

const defaultConfigPath = "configs/default.yaml"

func main() {
	var (
		configPath  string
		device      string
		baud        int
		framing     string
		noAutoAck   bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	flag.StringVar(&device, "device", "", "Serial device, e.g. /dev/ttyUSB0 (overrides config)")
	flag.IntVar(&baud, "baud", 0, "Baud rate (overrides config)")
	flag.StringVar(&framing, "framing", "", "Framing mode, hdlc or at (overrides config)")
	flag.BoolVar(&noAutoAck, "no-auto-ack", false, "Do not acknowledge sync and notification packets")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file
	if device != "" {
		cfg.Serial.Device = device
	}
	if baud != 0 {
		cfg.Serial.Baud = baud
	}
	if framing != "" {
		cfg.Framing.Mode = framing
	}
	if noAutoAck {
		cfg.Client.AutoAck = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Serial.Device == "" {
		fmt.Fprintln(os.Stderr, "No serial device: pass -device or set serial.device in the config")
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Log startup information
	log.WithField("version", version.GetInfo().Short()).Info("Starting ORP serial client")
	log.WithFields(logrus.Fields{
		"device":  cfg.Serial.Device,
		"baud":    cfg.Serial.Baud,
		"framing": cfg.Framing.Mode,
	}).Debug("Configuration loaded")

	// Start metrics server if enabled
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, logger.NewLogrusAdapter(logger.WithComponent(log, "metrics")))
	}

	// Create the serial session and the console driving it
	sess := client.New(cfg,
		transport.NewSerialOpener(),
		payload.NewOSSource(),
		logger.NewLogrusAdapter(logger.WithComponent(log, "session")))

	cons := console.New(cfg, sess, os.Stdin, os.Stdout,
		logger.NewLogrusAdapter(logger.WithComponent(log, "console")))
	sess.SetHandler(cons.HandleEvent)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Open the serial link
	if err := sess.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to open serial link")
	}

	// Start status API server if enabled
	if cfg.API.Enabled {
		srv := server.New(cfg, log, sess)
		handlers := client.NewHandlers(sess, logger.NewLogrusAdapter(logger.WithComponent(log, "api")))
		srv.RegisterRoutes(handlers.RegisterRoutes)

		go func() {
			if err := srv.Start(ctx); err != nil {
				log.WithError(err).Error("Status API server error")
			}
		}()
	}

	// Run the console until the user quits or a signal arrives
	runErr := cons.Run(ctx)
	cancel()

	// Cleanup
	if err := sess.Close(); err != nil {
		log.WithError(err).Error("Failed to close session")
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.WithError(runErr).Error("Console error")
	}

	log.Info("Client shutdown complete")
}

// loadConfig reads the configuration file. When the default path does not
// exist the built-in defaults apply; an explicit -config that cannot be
// read is an error.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}
