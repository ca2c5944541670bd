package tracking

import (
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/google/uuid"
)

// State is the session and route aggregate shared by the Controller and the
// Accumulator. All mutation happens under one lock, and events are published
// while it is held so subscribers see changes in order.
type State struct {
	mu        sync.Mutex
	sessionID string
	phase     Phase
	startedAt time.Time
	stoppedAt time.Time
	route     []geo.Point
	result    *Result

	// countdown identifies the live countdown. Bumped whenever a countdown
	// starts or is abandoned.
	countdown uint64

	hub   *Hub
	clock Clock
}

// NewState creates an idle session with an empty route.
func NewState(hub *Hub, clock Clock) *State {
	if clock == nil {
		clock = RealClock{}
	}
	return &State{hub: hub, clock: clock}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Route returns a copy of the recorded points.
func (s *State) Route() []geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRoute(s.route)
}

// Snapshot returns a consistent copy of the whole aggregate.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.sessionID,
		Phase:     s.phase,
		StartedAt: s.startedAt,
		StoppedAt: s.stoppedAt,
		Route:     copyRoute(s.route),
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}

// beginCountdown moves Idle -> CountingDown and returns the countdown token.
func (s *State) beginCountdown() (uint64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return 0, "", s.reject("start")
	}

	s.countdown++
	s.sessionID = uuid.NewString()
	s.setPhaseLocked(PhaseCountingDown)
	return s.countdown, s.sessionID, nil
}

// tick publishes a countdown tick if token is still the live countdown.
func (s *State) tick(token uint64, remaining int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCountingDown || s.countdown != token {
		return false
	}
	s.publishLocked(Event{Type: EventCountdownTick, Remaining: remaining})
	return true
}

// beginTracking moves CountingDown -> Tracking if token is still live.
func (s *State) beginTracking(token uint64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCountingDown || s.countdown != token {
		return time.Time{}, false
	}

	s.startedAt = s.clock.Now()
	s.setPhaseLocked(PhaseTracking)
	return s.startedAt, true
}

// stop moves Tracking -> Stopped and records the stop timestamp.
func (s *State) stop() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTracking {
		return time.Time{}, s.reject("stop")
	}

	s.stoppedAt = s.clock.Now()
	s.setPhaseLocked(PhaseStopped)
	return s.stoppedAt, nil
}

// finish computes and publishes the result of a stopped session.
func (s *State) finish() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseStopped {
		return Result{}, s.reject("finish")
	}

	res := ComputeResult(s.route, s.startedAt, s.stoppedAt)
	s.result = &res
	metrics.SessionDistance.Observe(res.DistanceKm)
	metrics.SessionDuration.Observe(res.Elapsed.Seconds())

	out := res
	s.publishLocked(Event{Type: EventResultReady, Route: copyRoute(s.route), Result: &out})
	return res, nil
}

// abortCountdown moves CountingDown -> Idle and invalidates the countdown.
func (s *State) abortCountdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCountingDown {
		return s.reject("abort")
	}

	s.countdown++
	s.clearLocked()
	s.setPhaseLocked(PhaseIdle)
	return nil
}

// reset moves Stopped -> Idle, discarding the route, timestamps and result.
func (s *State) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseStopped {
		return s.reject("reset")
	}

	s.clearLocked()
	s.setPhaseLocked(PhaseIdle)
	return nil
}

// appendPoint records p if the session is tracking.
func (s *State) appendPoint(p geo.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTracking {
		return false
	}

	s.route = append(s.route, p)
	s.publishLocked(Event{Type: EventRouteUpdated, Route: copyRoute(s.route)})
	return true
}

// clearRoute empties the route of an idle session.
func (s *State) clearRoute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return s.reject("clear")
	}
	s.route = nil
	return nil
}

func (s *State) clearLocked() {
	s.route = nil
	s.startedAt = time.Time{}
	s.stoppedAt = time.Time{}
	s.result = nil
}

func (s *State) setPhaseLocked(to Phase) {
	from := s.phase
	s.phase = to

	metrics.SessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
	metrics.SessionPhase.Set(float64(to))

	s.publishLocked(Event{Type: EventPhaseChanged, Previous: from})

	if to == PhaseIdle {
		s.sessionID = ""
	}
}

func (s *State) publishLocked(ev Event) {
	if s.hub == nil {
		return
	}
	ev.SessionID = s.sessionID
	ev.Phase = s.phase
	ev.StartedAt = s.startedAt
	ev.StoppedAt = s.stoppedAt
	ev.At = s.clock.Now()
	s.hub.Publish(ev)
}

func (s *State) reject(op string) error {
	metrics.RejectedTransitions.WithLabelValues(op, s.phase.String()).Inc()
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, s.phase)
}

func copyRoute(route []geo.Point) []geo.Point {
	if route == nil {
		return nil
	}
	out := make([]geo.Point, len(route))
	copy(out, route)
	return out
}
