package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vytor/sandplay/internal/db"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/services"
)

type Server struct {
	DB             *db.DB
	ScoreService   services.ScoreService
	SandboxService services.SandboxService
	GameService    services.GameService
	BoardService   services.BoardService
	Metrics        *metrics.Manager
	MaxUploadBytes int64

	validate *validator.Validate
}

// NewServer returns a Server with its request validator ready.
func NewServer(s Server) *Server {
	s.validate = newValidator()
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = 10 << 20
	}
	return &s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	return s.Routes()
}
