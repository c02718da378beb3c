package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/services"
)

// multipartSlack covers the form fields and boundaries around the file.
const multipartSlack = 1 << 20

func (s *Server) handleAnalyzeSandbox(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).WithPrefix("sandbox")

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(s.MaxUploadBytes + multipartSlack); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			handleError(w, r, errors.NewTooLargeError("upload exceeds the size limit"))
			return
		}
		handleError(w, r, errors.NewBadRequestError("expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, errors.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.MaxUploadBytes+1))
	if err != nil {
		log.Error("failed to read upload: %v", err)
		handleError(w, r, errors.NewBadRequestError("failed to read upload"))
		return
	}

	var items []models.PlacedItem
	if raw := strings.TrimSpace(r.FormValue("placed_items")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			handleError(w, r, errors.NewValidationError("placed_items", "must be a JSON list of items"))
			return
		}
	}

	result, err := s.SandboxService.Analyze(r.Context(), services.AnalyzeInput{
		Image:    data,
		Filename: header.Filename,
		UserID:   strings.TrimSpace(r.FormValue("user_id")),
		Prompt:   strings.TrimSpace(r.FormValue("prompt")),
		Items:    items,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	analyses, err := s.SandboxService.History(r.Context(), models.AnalysisFilter{
		UserID: r.URL.Query().Get("user_id"),
		Limit:  limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if analyses == nil {
		analyses = []models.SandboxAnalysis{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"analyses": analyses})
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"groups": s.BoardService.Library()})
}
