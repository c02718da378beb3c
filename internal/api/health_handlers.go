package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/sandplay/internal/logger"
)

// handleRoot mirrors the backend's welcome payload.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "sandplay backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth returns basic health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady checks if the service is ready to accept requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.DB.PingContext(ctx); err != nil {
		log.Error("database ping failed: %v", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{"database": "failed"},
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{"database": "ok"},
	})
}
