package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goodtune/runtracker/internal/storage"
	"github.com/gorilla/mux"
)

// DefaultHistoryLimit caps /api/history when no limit is given.
const DefaultHistoryLimit = 20

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Results == nil {
		WriteError(w, http.StatusNotFound, "History disabled")
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.deps.Results.List(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list history")
		WriteError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": records,
		"count":   len(records),
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Results == nil {
		WriteError(w, http.StatusNotFound, "History disabled")
		return
	}

	id := mux.Vars(r)["id"]
	record, err := s.deps.Results.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Session result not found")
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to get session result")
		WriteError(w, http.StatusInternalServerError, "Failed to retrieve session result")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}
