// Package history keeps finished session results in a storage backend and
// prunes them once they age out of the retention window.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

// DefaultSaveTimeout bounds a single store write.
const DefaultSaveTimeout = 5 * time.Second

// ErrNotResult is returned by Record for events that carry no result.
var ErrNotResult = errors.New("history: event carries no session result")

// Recorder saves every published session result.
type Recorder struct {
	results storage.ResultStore
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRecorder creates a recorder that writes to results.
func NewRecorder(results storage.ResultStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		results: results,
		timeout: DefaultSaveTimeout,
		logger:  logger.With().Str("component", "history-recorder").Logger(),
	}
}

// Run consumes sub until ctx is done or the subscription closes.
func (r *Recorder) Run(ctx context.Context, sub *tracking.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Type != tracking.EventResultReady {
				continue
			}
			if err := r.Record(ctx, ev); err != nil {
				r.logger.Error().
					Err(err).
					Str("session_id", ev.SessionID).
					Msg("Failed to save session result")
			}
		}
	}
}

// Record saves the result carried by ev.
func (r *Recorder) Record(ctx context.Context, ev tracking.Event) error {
	if ev.Type != tracking.EventResultReady || ev.Result == nil {
		return ErrNotResult
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	record := RecordFromEvent(ev)
	if err := r.results.Save(ctx, record); err != nil {
		metrics.HistoryRecords.WithLabelValues("error").Inc()
		return fmt.Errorf("save result %s: %w", record.ID, err)
	}

	metrics.HistoryRecords.WithLabelValues("saved").Inc()
	r.logger.Info().
		Str("session_id", record.ID).
		Str("distance", record.Distance).
		Str("time", record.Time).
		Int("points", record.Points).
		Msg("Session result saved")
	return nil
}

// RecordFromEvent converts a result event into a storage record.
func RecordFromEvent(ev tracking.Event) storage.SessionRecord {
	record := storage.SessionRecord{
		ID:        ev.SessionID,
		StartedAt: ev.StartedAt,
		StoppedAt: ev.StoppedAt,
		Route:     ev.Route,
	}
	if ev.Result != nil {
		record.Distance = ev.Result.Distance
		record.Time = ev.Result.Time
		record.DistanceKm = ev.Result.DistanceKm
		record.ElapsedMs = ev.Result.Elapsed.Milliseconds()
		record.Points = ev.Result.Points
	}
	return record
}
