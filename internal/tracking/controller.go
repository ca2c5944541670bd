// Package tracking implements the tracking session state machine and the
// route accumulator.
//
// A session moves Idle -> CountingDown -> Tracking -> Stopped -> Idle. The
// Controller drives phase changes and tells a Recorder when location
// recording should begin and end; the Accumulator appends incoming samples
// to the route while the session is tracking. Both share one State.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/runtracker/internal/permission"
	"github.com/rs/zerolog"
)

const (
	// DefaultCountdownTicks is the number of countdown ticks before tracking.
	DefaultCountdownTicks = 4

	// DefaultCountdownInterval is the time between countdown ticks.
	DefaultCountdownInterval = time.Second

	// MaxPermissionRequests bounds how often Start asks a gate that keeps
	// answering Denied.
	MaxPermissionRequests = 3
)

// Recorder subscribes to location updates on behalf of the controller.
type Recorder interface {
	BeginRecording(ctx context.Context) error
	EndRecording() error
}

// PermissionGate decides whether background location may be used.
type PermissionGate interface {
	Granted() bool
	Request(ctx context.Context) (permission.Status, error)
}

// Config holds controller configuration
type Config struct {
	CountdownTicks    int
	CountdownInterval time.Duration
}

// Controller owns session phase transitions.
type Controller struct {
	state    *State
	recorder Recorder
	gate     PermissionGate
	config   Config
	logger   zerolog.Logger

	// mu serialises whole operations, including the recorder calls made
	// during them.
	mu        sync.Mutex
	cancel    context.CancelFunc
	recording bool
	wg        sync.WaitGroup
}

// NewController creates a controller for state. gate may be nil when no
// permission is required.
func NewController(state *State, recorder Recorder, gate PermissionGate, config Config, logger zerolog.Logger) *Controller {
	if config.CountdownTicks <= 0 {
		config.CountdownTicks = DefaultCountdownTicks
	}
	if config.CountdownInterval <= 0 {
		config.CountdownInterval = DefaultCountdownInterval
	}

	return &Controller{
		state:    state,
		recorder: recorder,
		gate:     gate,
		config:   config,
		logger:   logger.With().Str("component", "session-controller").Logger(),
	}
}

// State returns the aggregate the controller drives.
func (c *Controller) State() *State {
	return c.state
}

// Snapshot returns a consistent copy of the session.
func (c *Controller) Snapshot() Snapshot {
	return c.state.Snapshot()
}

// Start begins the countdown. It is only valid while idle. When background
// location has not been granted the gate is asked, repeatedly while the user
// denies, until it is granted or permanently denied.
func (c *Controller) Start(ctx context.Context) error {
	if phase := c.state.Phase(); phase != PhaseIdle {
		err := c.state.reject("start")
		c.logger.Debug().Err(err).Msg("Start rejected")
		return err
	}

	if err := c.ensurePermission(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	token, sessionID, err := c.state.beginCountdown()
	if err != nil {
		c.logger.Debug().Err(err).Msg("Start rejected")
		return err
	}

	countdownCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.logger.Info().
		Str("session_id", sessionID).
		Int("ticks", c.config.CountdownTicks).
		Dur("interval", c.config.CountdownInterval).
		Msg("Countdown started")

	c.wg.Add(1)
	go c.runCountdown(countdownCtx, token, sessionID)

	return nil
}

func (c *Controller) ensurePermission(ctx context.Context) error {
	if c.gate == nil || c.gate.Granted() {
		return nil
	}

	for attempt := 1; ; attempt++ {
		status, err := c.gate.Request(ctx)
		if err != nil {
			return fmt.Errorf("permission request failed: %w", err)
		}

		switch status {
		case permission.Granted:
			c.logger.Info().Msg("Permission granted, starting session")
			return nil
		case permission.PermanentlyDenied:
			c.logger.Warn().Msg("Permission permanently denied")
			return ErrPermissionPermanentlyDenied
		}

		if attempt >= MaxPermissionRequests || ctx.Err() != nil {
			c.logger.Info().Int("attempts", attempt).Msg("Permission denied")
			return ErrPermissionDenied
		}
		c.logger.Info().Msg("Permission denied, asking again")
	}
}

// runCountdown publishes one tick per interval, then starts tracking unless
// the countdown was cancelled in the meantime.
func (c *Controller) runCountdown(ctx context.Context, token uint64, sessionID string) {
	defer c.wg.Done()

	timer := time.NewTimer(c.config.CountdownInterval)
	defer timer.Stop()

	for remaining := c.config.CountdownTicks - 1; remaining >= 0; remaining-- {
		if !c.state.tick(token, remaining) {
			return
		}

		if remaining != c.config.CountdownTicks-1 {
			timer.Reset(c.config.CountdownInterval)
		}

		select {
		case <-ctx.Done():
			c.logger.Debug().Str("session_id", sessionID).Msg("Countdown cancelled")
			return
		case <-timer.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	startedAt, ok := c.state.beginTracking(token)
	if !ok {
		return
	}
	c.cancel = nil

	c.logger.Info().
		Str("session_id", sessionID).
		Time("started_at", startedAt).
		Msg("Tracking started")

	c.recording = true
	if c.recorder != nil {
		if err := c.recorder.BeginRecording(context.Background()); err != nil {
			c.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to begin location recording")
		}
	}
}

// Stop ends a tracking session and computes its result.
func (c *Controller) Stop() (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stoppedAt, err := c.state.stop()
	if err != nil {
		c.logger.Debug().Err(err).Msg("Stop rejected")
		return Result{}, err
	}

	c.endRecordingLocked()

	res, err := c.state.finish()
	if err != nil {
		return Result{}, err
	}

	c.logger.Info().
		Time("stopped_at", stoppedAt).
		Str("distance_km", res.Distance).
		Str("time", res.Time).
		Int("points", res.Points).
		Msg("Tracking stopped")

	return res, nil
}

// Reset returns a stopped session to idle, discarding its route and result.
// During the countdown it cancels the countdown instead.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase() == PhaseCountingDown {
		if err := c.state.abortCountdown(); err != nil {
			return err
		}
		c.cancelCountdownLocked()
		c.logger.Info().Msg("Countdown aborted")
		return nil
	}

	if err := c.state.reset(); err != nil {
		c.logger.Debug().Err(err).Msg("Reset rejected")
		return err
	}

	c.logger.Info().Msg("Session reset")
	return nil
}

// Close cancels a pending countdown, ends recording and waits for the
// countdown goroutine to exit.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.cancelCountdownLocked()
	c.endRecordingLocked()
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Controller) cancelCountdownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) endRecordingLocked() {
	if !c.recording {
		return
	}
	c.recording = false
	if c.recorder == nil {
		return
	}
	if err := c.recorder.EndRecording(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to end location recording")
	}
}

// IsInvalidTransition reports whether err is a rejected phase transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
