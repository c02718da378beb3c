package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/services"
)

type answerRequest struct {
	Selected string `json:"selected" validate:"required"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in services.CreateGameInput
	if r.ContentLength != 0 {
		if err := s.decodeAndValidate(w, r, &in); err != nil {
			handleError(w, r, err)
			return
		}
	}
	game, err := s.GameService.Create(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, game)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.gameTransition(w, r, s.GameService.Get)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	s.gameTransition(w, r, s.GameService.Start)
}

func (s *Server) handleRetryGame(w http.ResponseWriter, r *http.Request) {
	s.gameTransition(w, r, s.GameService.Retry)
}

func (s *Server) handleContinueGame(w http.ResponseWriter, r *http.Request) {
	s.gameTransition(w, r, s.GameService.Continue)
}

func (s *Server) gameTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*services.GameSnapshot, error)) {
	game, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, game)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req answerRequest
	if err := s.decodeAndValidate(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	out, err := s.GameService.Answer(r.Context(), id, emotion.Emotion(req.Selected))
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).WithPrefix("games").Debug("answer for game %s: correct=%v", id, out.Correct)
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.GameService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
