package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current phase. The call has no side effects.
	ErrInvalidTransition = errors.New("tracking: invalid state transition")

	// ErrPermissionDenied is returned when the permission request ends
	// without a grant but may be asked again later.
	ErrPermissionDenied = errors.New("tracking: background location permission denied")

	// ErrPermissionPermanentlyDenied is returned when the user has to enable
	// the permission in the system settings.
	ErrPermissionPermanentlyDenied = errors.New("tracking: background location permission permanently denied")
)

// Phase is the stage of a tracking session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountingDown
	PhaseTracking
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountingDown:
		return "counting_down"
	case PhaseTracking:
		return "tracking"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase parses the text form produced by Phase.String.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "idle":
		return PhaseIdle, nil
	case "counting_down":
		return PhaseCountingDown, nil
	case "tracking":
		return PhaseTracking, nil
	case "stopped":
		return PhaseStopped, nil
	}
	return PhaseIdle, fmt.Errorf("tracking: unknown phase %q", s)
}

// MarshalText implements encoding.TextMarshaler so phases read well in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	phase, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = phase
	return nil
}

// Result is the summary shown to the user after a session stops.
type Result struct {
	Distance   string        `json:"distance"`
	Time       string        `json:"time"`
	DistanceKm float64       `json:"distance_km"`
	Elapsed    time.Duration `json:"elapsed"`
	Points     int           `json:"points"`
}

// Snapshot is a consistent copy of the session and its route.
type Snapshot struct {
	SessionID string      `json:"session_id,omitempty"`
	Phase     Phase       `json:"phase"`
	StartedAt time.Time   `json:"started_at"`
	StoppedAt time.Time   `json:"stopped_at"`
	Route     []geo.Point `json:"route"`
	Result    *Result     `json:"result,omitempty"`
}

// EventType identifies what changed.
type EventType string

const (
	EventPhaseChanged  EventType = "phase_changed"
	EventCountdownTick EventType = "countdown_tick"
	EventRouteUpdated  EventType = "route_updated"
	EventResultReady   EventType = "result_ready"
)

// Event is delivered to hub subscribers. Route is a copy owned by the
// receiver.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Phase     Phase       `json:"phase"`
	Previous  Phase       `json:"previous"`
	Remaining int         `json:"remaining,omitempty"`
	Route     []geo.Point `json:"route,omitempty"`
	Result    *Result     `json:"result,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	StoppedAt time.Time   `json:"stopped_at"`
	At        time.Time   `json:"at"`
}

// CountdownLabel is the text shown for a countdown tick: the remaining count,
// or "GO" on the last tick.
func CountdownLabel(remaining int) string {
	if remaining == 0 {
		return "GO"
	}
	return fmt.Sprintf("%d", remaining)
}
