package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	// backend endpoints the game and dashboard call
	r.Post("/save_score_table", s.handleSaveScoreTable)
	r.Get("/get_feedback_all", s.handleFeedback)
	r.Post("/analyze_sandbox/", s.handleAnalyzeSandbox)

	r.Route("/api", func(r chi.Router) {
		r.With(timeoutMiddleware(30 * time.Second)).Group(func(r chi.Router) {
			r.Get("/emotion_summary", s.handleEmotionSummary)
			r.Get("/score_table.xlsx", s.handleExportScores)
			r.Get("/rounds", s.handleListRounds)
			r.Get("/rounds/{id}", s.handleGetRound)
			r.Get("/sandbox_analyses", s.handleListAnalyses)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/dashboard/feedback", s.handleDashboardFeedback)
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", s.handleCreateGame)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetGame)
				r.Delete("/", s.handleDeleteGame)
				r.Post("/start", s.handleStartGame)
				r.Post("/retry", s.handleRetryGame)
				r.Post("/answer", s.handleAnswer)
				r.Post("/continue", s.handleContinueGame)
			})
		})

		r.Get("/sandbox/library", s.handleLibrary)

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", s.handleCreateBoard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBoard)
				r.Delete("/", s.handleDeleteBoard)
				r.Post("/items", s.handleDropItem)
				r.Delete("/items", s.handleClearBoard)
				r.Delete("/items/{itemID}", s.handleDeleteItem)
				r.Post("/items/{itemID}/grab", s.handleGrab)
				r.Post("/items/{itemID}/resize", s.handleBeginResize)
				r.Post("/pointer", s.handlePointer)
				r.Post("/release", s.handleRelease)
				r.Get("/export", s.handleExportBoard)
				r.Get("/snapshot.png", s.handleSnapshot)
				r.Post("/analyze", s.handleAnalyzeBoard)
				r.Post("/chat", s.handleChat)
				r.Get("/chat", s.handleMessages)
			})
		})
	})

	return r
}
