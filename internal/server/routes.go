package server

import (
	"encoding/json"
	"net/http"

	"github.com/orp-io/orp/pkg/version"
)

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.GetInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if err := json.NewEncoder(w).Encode(versionInfo); err != nil {
		s.logger.WithError(err).Error("Failed to encode version response")
		s.errorHandler.HandleError(w, r, err)
	}
}

// handleIndex handles the root endpoint
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}{
		Service: "orp",
		Endpoints: []string{
			"/healthz",
			"/ready",
			"/live",
			"/version",
			"/api/v1/session",
		},
	}

	if err := s.writeJSON(w, http.StatusOK, response); err != nil {
		s.logger.WithError(err).Error("Failed to encode index response")
	}
}

// handleSessionPlaceholder is a placeholder for the session endpoint when no
// session has registered its routes
func (s *Server) handleSessionPlaceholder(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Message string `json:"message"`
	}{
		Message: "Session endpoint requires an active client session",
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
		s.errorHandler.HandleError(w, r, err)
	}
}

// writeJSON is a helper to write JSON responses
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
