package api

import (
	"net/http"
	"time"

	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/logger"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	writeJSON(w, r, appErr.Status, map[string]any{
		"error":     appErr.Message,
		"code":      appErr.Code,
		"message":   "Request processing failed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
