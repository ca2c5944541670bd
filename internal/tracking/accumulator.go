package tracking

import (
	"context"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/rs/zerolog"
)

// Accumulator appends location samples to the route of a tracking session.
type Accumulator struct {
	state  *State
	logger zerolog.Logger
}

// NewAccumulator creates an accumulator writing into state.
func NewAccumulator(state *State, logger zerolog.Logger) *Accumulator {
	return &Accumulator{
		state:  state,
		logger: logger.With().Str("component", "route-accumulator").Logger(),
	}
}

// AddPoint appends p when the session is tracking and reports whether it was
// recorded. Samples arriving in any other phase are ignored.
func (a *Accumulator) AddPoint(p geo.Point) bool {
	if !a.state.appendPoint(p) {
		metrics.LocationSamples.WithLabelValues("ignored").Inc()
		a.logger.Debug().Stringer("point", p).Msg("Sample ignored outside tracking phase")
		return false
	}

	metrics.LocationSamples.WithLabelValues("recorded").Inc()
	return true
}

// Run consumes samples from in, in arrival order, until ctx is cancelled or
// in is closed.
func (a *Accumulator) Run(ctx context.Context, in <-chan geo.Point) error {
	a.logger.Debug().Msg("Route accumulator started")
	defer a.logger.Debug().Msg("Route accumulator stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-in:
			if !ok {
				return nil
			}
			a.AddPoint(p)
		}
	}
}

// Clear empties the route. It is only valid once the session is idle.
func (a *Accumulator) Clear() error {
	return a.state.clearRoute()
}
