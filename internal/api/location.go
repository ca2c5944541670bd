package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/location"
)

const maxLocationBody = 4 << 10

// handlePostLocation accepts a sample for the push provider. The sample also
// becomes the map's last known location, even when no session is recording.
func (s *Server) handlePostLocation(w http.ResponseWriter, r *http.Request) {
	var p geo.Point
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLocationBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&p); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid location body")
		return
	}
	if !p.Valid() {
		WriteError(w, http.StatusBadRequest, "Coordinates out of range")
		return
	}

	if s.deps.View != nil {
		s.deps.View.ObserveLocation(p)
	}

	if s.deps.Push == nil {
		WriteError(w, http.StatusNotFound, "Location source does not accept pushed samples")
		return
	}

	switch err := s.deps.Push.Publish(p); {
	case err == nil:
		WriteJSON(w, http.StatusAccepted, map[string]interface{}{"accepted": true})
	case errors.Is(err, location.ErrNotSubscribed):
		WriteError(w, http.StatusConflict, "No session is recording")
	case errors.Is(err, location.ErrBacklogFull):
		WriteError(w, http.StatusServiceUnavailable, "Location backlog full")
	default:
		s.logger.Error().Err(err).Msg("Failed to publish location")
		WriteError(w, http.StatusInternalServerError, "Failed to publish location")
	}
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	if s.deps.View == nil {
		WriteError(w, http.StatusNotFound, "Map view disabled")
		return
	}
	WriteJSON(w, http.StatusOK, s.deps.View.State())
}

func (s *Server) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	if s.deps.Notifier == nil {
		WriteError(w, http.StatusNotFound, "Notifications disabled")
		return
	}
	note, ok := s.deps.Notifier.Current()
	if !ok {
		WriteError(w, http.StatusNotFound, "No notification on display")
		return
	}
	WriteJSON(w, http.StatusOK, note)
}
