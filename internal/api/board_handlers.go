package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/sandbox"
	"github.com/vytor/sandplay/internal/services"
)

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var in services.CreateBoardInput
	if r.ContentLength != 0 {
		if err := s.decodeAndValidate(w, r, &in); err != nil {
			handleError(w, r, err)
			return
		}
	}
	board, err := s.BoardService.Create(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, board)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.BoardService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, board)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.BoardService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDropItem(w http.ResponseWriter, r *http.Request) {
	var in services.DropInput
	if err := s.decodeAndValidate(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	item, err := s.BoardService.Drop(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, item)
}

func (s *Server) handleGrab(w http.ResponseWriter, r *http.Request) {
	s.beginGesture(w, r, s.BoardService.Grab)
}

func (s *Server) handleBeginResize(w http.ResponseWriter, r *http.Request) {
	s.beginGesture(w, r, s.BoardService.BeginResize)
}

func (s *Server) beginGesture(w http.ResponseWriter, r *http.Request, begin func(ctx context.Context, id, itemID string, p sandbox.Point) error) {
	var p sandbox.Point
	if err := decodeJSON(w, r, &p); err != nil {
		handleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := begin(r.Context(), id, chi.URLParam(r, "itemID"), p); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeBoard(w, r, id)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var p sandbox.Point
	if err := decodeJSON(w, r, &p); err != nil {
		handleError(w, r, err)
		return
	}
	item, err := s.BoardService.Pointer(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.BoardService.Release(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	s.writeBoard(w, r, id)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, itemID := chi.URLParam(r, "id"), chi.URLParam(r, "itemID")
	deleted, err := s.BoardService.DeleteItem(r.Context(), id, itemID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !deleted {
		handleError(w, r, errors.NewNotFoundError("item", itemID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearBoard(w http.ResponseWriter, r *http.Request) {
	n, err := s.BoardService.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleExportBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.BoardService.Export(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeFile(w, "application/json", "sandbox-"+id+".json", data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.BoardService.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeFile(w, "image/png", "", data)
}

func (s *Server) handleAnalyzeBoard(w http.ResponseWriter, r *http.Request) {
	var in services.AnalyzeBoardInput
	if r.ContentLength != 0 {
		if err := s.decodeAndValidate(w, r, &in); err != nil {
			handleError(w, r, err)
			return
		}
	}
	result, err := s.BoardService.Analyze(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	msg, err := s.BoardService.Chat(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msg)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.BoardService.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) writeBoard(w http.ResponseWriter, r *http.Request, id string) {
	board, err := s.BoardService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, board)
}
