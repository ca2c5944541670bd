package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

// PruneScheduler deletes results older than the retention window once a day
type PruneScheduler struct {
	results       storage.ResultStore
	hour, minute  int
	retentionDays int
	clock         tracking.Clock
	logger        zerolog.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewPruneScheduler creates a scheduler that runs at pruneTime (HH:MM) and
// keeps retentionDays days of results. A retention of zero keeps everything.
func NewPruneScheduler(results storage.ResultStore, pruneTime string, retentionDays int, logger zerolog.Logger) (*PruneScheduler, error) {
	hour, minute, err := config.ParseClock(pruneTime)
	if err != nil {
		return nil, err
	}
	if retentionDays < 0 {
		return nil, fmt.Errorf("retention days must not be negative: %d", retentionDays)
	}

	return &PruneScheduler{
		results:       results,
		hour:          hour,
		minute:        minute,
		retentionDays: retentionDays,
		clock:         tracking.RealClock{},
		logger:        logger.With().Str("component", "prune-scheduler").Logger(),
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the prune scheduler
func (ps *PruneScheduler) Start() {
	if ps.retentionDays == 0 {
		ps.logger.Info().Msg("History retention disabled, prune scheduler not started")
		return
	}
	go ps.run()
	ps.logger.Info().
		Str("prune_time", fmt.Sprintf("%02d:%02d", ps.hour, ps.minute)).
		Int("retention_days", ps.retentionDays).
		Msg("History prune scheduler started")
}

// Stop stops the prune scheduler
func (ps *PruneScheduler) Stop() {
	ps.stopOnce.Do(func() {
		close(ps.stopChan)
		ps.logger.Info().Msg("History prune scheduler stopped")
	})
}

func (ps *PruneScheduler) run() {
	for {
		nextPrune := ps.nextPrune(ps.clock.Now())
		waitDuration := nextPrune.Sub(ps.clock.Now())

		ps.logger.Debug().
			Time("next_prune", nextPrune).
			Dur("wait_duration", waitDuration).
			Msg("Scheduled next history prune")

		select {
		case <-time.After(waitDuration):
			if _, err := ps.Prune(context.Background()); err != nil {
				ps.logger.Error().Err(err).Msg("Failed to prune history")
			}
		case <-ps.stopChan:
			return
		}
	}
}

// nextPrune returns the first prune time strictly after now.
func (ps *PruneScheduler) nextPrune(now time.Time) time.Time {
	today := time.Date(
		now.Year(), now.Month(), now.Day(),
		ps.hour, ps.minute, 0, 0,
		now.Location(),
	)

	if !today.After(now) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// Cutoff is the stop time before which results are pruned.
func (ps *PruneScheduler) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -ps.retentionDays)
}

// Prune deletes results that fall outside the retention window.
func (ps *PruneScheduler) Prune(ctx context.Context) (int, error) {
	if ps.retentionDays == 0 {
		return 0, nil
	}

	cutoff := ps.Cutoff(ps.clock.Now())
	deleted, err := ps.results.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete results before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	metrics.HistoryRecords.WithLabelValues("pruned").Add(float64(deleted))
	ps.logger.Info().
		Int("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("History prune complete")
	return deleted, nil
}
