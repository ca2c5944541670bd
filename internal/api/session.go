package api

import (
	"net/http"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/tracking"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.deps.Controller.Snapshot())
}

// handleStart answers 202 once the countdown has begun; tracking starts when
// it completes.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Controller.Start(r.Context()); err != nil {
		s.logger.Debug().Err(err).Msg("Start request failed")
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, s.deps.Controller.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Controller.Stop()
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stop request failed")
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Controller.Reset(); err != nil {
		s.logger.Debug().Err(err).Msg("Reset request failed")
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.deps.Controller.Snapshot())
}

func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	snapshot := s.deps.Controller.Snapshot()
	route := snapshot.Route
	if route == nil {
		route = make([]geo.Point, 0)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"phase": snapshot.Phase,
		"route": route,
		"count": len(route),
	})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	snapshot := s.deps.Controller.Snapshot()
	if snapshot.Result == nil {
		writeDomainError(w, storage.ErrNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		SessionID string `json:"session_id"`
		tracking.Result
	}{snapshot.SessionID, *snapshot.Result})
}
