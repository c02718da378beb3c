package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/vytor/sandplay/internal/dashboard"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/services"
)

// scoreFetcher serves the dashboard loader straight from the score service.
type scoreFetcher struct {
	svc    services.ScoreService
	filter models.RoundFilter
}

func (f scoreFetcher) FetchSummary(ctx context.Context) (*models.AnalysisSummary, error) {
	return f.svc.Summary(ctx, f.filter)
}

func (f scoreFetcher) FetchFeedback(ctx context.Context) (*models.Feedback, error) {
	return f.svc.Feedback(ctx, f.filter)
}

func (s *Server) dashboardLoader(r *http.Request) (*dashboard.Loader, error) {
	filter, err := roundFilter(r)
	if err != nil {
		return nil, err
	}
	f := scoreFetcher{svc: s.ScoreService, filter: filter}
	return dashboard.NewLoader(f, f), nil
}

// handleDashboard serves the analysis dashboard view, as JSON or as text
// with ?format=text.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	loader, err := s.dashboardLoader(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	state := loader.Load(r.Context())
	if r.URL.Query().Get("format") == "text" {
		var buf bytes.Buffer
		if err := dashboard.Render(&buf, state); err != nil {
			logger.FromContext(r.Context()).Error("failed to render dashboard: %v", err)
		}
		writeFile(w, "text/plain; charset=utf-8", "", buf.Bytes())
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleDashboardFeedback(w http.ResponseWriter, r *http.Request) {
	loader, err := s.dashboardLoader(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	state := loader.LoadFeedback(r.Context())
	if r.URL.Query().Get("format") == "text" {
		var buf bytes.Buffer
		if err := dashboard.RenderFeedback(&buf, state); err != nil {
			logger.FromContext(r.Context()).Error("failed to render feedback: %v", err)
		}
		writeFile(w, "text/plain; charset=utf-8", "", buf.Bytes())
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}
