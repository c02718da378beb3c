package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
)

type saveScoreRequest struct {
	Round    int                   `json:"round" validate:"required,gte=1"`
	Results  []models.AnswerRecord `json:"results" validate:"required,dive"`
	PlayerID string                `json:"player_id" validate:"max=64"`
}

type saveScoreResponse struct {
	Message string `json:"message"`
	RoundID int64  `json:"round_id"`
}

func (s *Server) handleSaveScoreTable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).WithPrefix("scores")

	var req saveScoreRequest
	if err := s.decodeAndValidate(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	id, err := s.ScoreService.SaveRound(r.Context(), models.Round{
		Number:   req.Round,
		PlayerID: req.PlayerID,
		Results:  req.Results,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("score table saved: round=%d id=%d", req.Round, id)
	writeJSON(w, r, http.StatusOK, saveScoreResponse{Message: "Saved", RoundID: id})
}

func (s *Server) handleEmotionSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := roundFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summary, err := s.ScoreService.Summary(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	filter, err := roundFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	fb, err := s.ScoreService.Feedback(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, fb)
}

func (s *Server) handleExportScores(w http.ResponseWriter, r *http.Request) {
	filter, err := roundFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	data, err := s.ScoreService.ExportExcel(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "score_table.xlsx", data)
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	filter, err := roundFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rounds, total, err := s.ScoreService.ListRounds(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"rounds": rounds,
		"total":  total,
	})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, r, errors.NewValidationError("id", "must be an integer"))
		return
	}
	round, err := s.ScoreService.GetRound(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, round)
}
