// Package location delivers location samples to the route accumulator while
// a session is recording.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is the preferred time between samples.
	DefaultInterval = 4 * time.Second

	// DefaultFastestInterval is the minimum time between forwarded samples.
	DefaultFastestInterval = 2 * time.Second
)

// ErrAlreadyRecording is returned by BeginRecording when a subscription is
// already active.
var ErrAlreadyRecording = errors.New("location: already recording")

// Provider produces raw samples. Stream sends samples to out until ctx is
// cancelled or the provider runs out, and must return promptly once ctx is
// done.
type Provider interface {
	Name() string
	Stream(ctx context.Context, out chan<- geo.Point) error
}

// FeedConfig holds feed configuration
type FeedConfig struct {
	// FastestInterval drops samples that arrive sooner than this after the
	// previously forwarded one. Zero forwards everything.
	FastestInterval time.Duration
}

// Feed subscribes a Provider on BeginRecording and forwards its samples to
// the accumulator channel until EndRecording.
type Feed struct {
	provider Provider
	out      chan<- geo.Point
	config   FeedConfig
	clock    tracking.Clock
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a feed that writes to out.
func NewFeed(provider Provider, out chan<- geo.Point, config FeedConfig, clock tracking.Clock, logger zerolog.Logger) *Feed {
	if clock == nil {
		clock = tracking.RealClock{}
	}
	return &Feed{
		provider: provider,
		out:      out,
		config:   config,
		clock:    clock,
		logger: logger.With().
			Str("component", "location-feed").
			Str("provider", provider.Name()).
			Logger(),
	}
}

// BeginRecording starts streaming from the provider.
func (f *Feed) BeginRecording(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		return ErrAlreadyRecording
	}

	streamCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go f.run(streamCtx, f.done)

	f.logger.Info().
		Dur("fastest_interval", f.config.FastestInterval).
		Msg("Location updates requested")
	return nil
}

// EndRecording stops the provider and waits until no more samples will be
// forwarded. Calling it while not recording is a no-op.
func (f *Feed) EndRecording() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	f.logger.Info().Msg("Location updates removed")
	return nil
}

// Recording reports whether the feed is subscribed.
func (f *Feed) Recording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}

func (f *Feed) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	raw := make(chan geo.Point)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.provider.Stream(ctx, raw)
	}()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			<-errCh
			return
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				metrics.ProviderErrors.WithLabelValues(f.provider.Name()).Inc()
				f.logger.Error().Err(err).Msg("Location provider failed")
				return
			}
			f.logger.Info().Msg("Location provider finished")
			return
		case p := <-raw:
			now := f.clock.Now()
			if f.config.FastestInterval > 0 && !last.IsZero() && now.Sub(last) < f.config.FastestInterval {
				metrics.LocationThrottled.Inc()
				f.logger.Debug().Stringer("point", p).Msg("Sample throttled")
				continue
			}
			last = now

			select {
			case f.out <- p:
			case <-ctx.Done():
				<-errCh
				return
			}
		}
	}
}
