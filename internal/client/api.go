package client

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orp-io/orp/internal/logger"
)

// Handlers exposes the session over the status API.
type Handlers struct {
	session *Session
	logger  logger.Logger
}

// NewHandlers creates the HTTP handlers for a session.
func NewHandlers(session *Session, log logger.Logger) *Handlers {
	return &Handlers{
		session: session,
		logger:  log.WithField("component", "session_handlers"),
	}
}

// RegisterRoutes registers the session API routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/session", h.HandleSession).Methods("GET")

	h.logger.Info("Session routes registered")
}

// SessionResponse is the JSON shape served for GET /api/v1/session.
type SessionResponse struct {
	Stats
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// HandleSession serves the session counters.
func (h *Handlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	stats := h.session.Stats()

	resp := SessionResponse{Stats: stats}
	if !stats.StartedAt.IsZero() {
		resp.UptimeSeconds = time.Since(stats.StartedAt).Seconds()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WithError(err).Error("Failed to encode session response")
	}
}
