package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/orp-io/orp/internal/config"
	"github.com/orp-io/orp/internal/errors"
	"github.com/orp-io/orp/internal/health"
	"github.com/orp-io/orp/internal/logger"
)

// Server is the status API server. It exposes health, version and session
// endpoints next to the interactive console so the client can be watched
// from the outside.
type Server struct {
	config       *config.Config
	router       *mux.Router
	httpServer   *http.Server
	logger       *logrus.Logger
	healthMgr    *health.Manager
	errorHandler *errors.ErrorHandler

	// Additional handlers can be registered
	routesMu         sync.Mutex
	additionalRoutes []func(*mux.Router)
}

// New creates a new server instance. The probe reports serial link state
// for readiness; a nil probe skips the link checker.
func New(cfg *config.Config, log *logrus.Logger, probe health.LinkProbe) *Server {
	router := mux.NewRouter()
	healthMgr := health.NewManager(log)
	errorHandler := errors.NewErrorHandler(log)

	s := &Server{
		config:           cfg,
		router:           router,
		logger:           log,
		healthMgr:        healthMgr,
		errorHandler:     errorHandler,
		additionalRoutes: make([]func(*mux.Router), 0),
	}

	// Register health checkers
	s.registerHealthCheckers(probe)

	return s
}

// Start starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	// Setup routes
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.API.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
	}

	// Start periodic health checks
	go s.healthMgr.StartPeriodicChecks(ctx, 30*time.Second)

	s.logger.WithField("port", s.config.API.Port).Info("Starting status API server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down status API server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.API.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Status API server shutdown complete")
	return nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Apply global middleware
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.corsMiddleware)

	// Health endpoints
	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/healthz", healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

	// Version endpoint
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	// Root endpoint lists what is served
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")

	// API routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	s.routesMu.Lock()
	additional := s.additionalRoutes
	s.routesMu.Unlock()

	// Only register placeholder if no additional routes were registered
	if len(additional) == 0 {
		// Placeholder endpoint - replaced when a session registers its routes
		api.HandleFunc("/session", s.handleSessionPlaceholder).Methods("GET")
	}

	// Register any additional routes
	for _, registerFunc := range additional {
		registerFunc(s.router)
	}

	// 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// registerHealthCheckers registers all health checkers
func (s *Server) registerHealthCheckers(probe health.LinkProbe) {
	// Register serial device checker
	deviceChecker := health.NewDeviceChecker(s.config.Serial.Device)
	s.healthMgr.Register(deviceChecker)

	// Register link checker when a session is attached
	if probe != nil {
		linkChecker := health.NewLinkChecker(probe)
		s.healthMgr.Register(linkChecker)
	}
}

// RegisterRoutes adds additional route handlers to the server
func (s *Server) RegisterRoutes(registerFunc func(*mux.Router)) {
	s.routesMu.Lock()
	defer s.routesMu.Unlock()
	s.additionalRoutes = append(s.additionalRoutes, registerFunc)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
