package mapview

import (
	"testing"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

func newView() *View {
	return NewView(Config{FollowZoom: 18, BoundsPadding: 100}, zerolog.Nop())
}

func TestCountdownOverlay(t *testing.T) {
	view := newView()

	for remaining, want := range map[int]string{3: "3", 1: "1", 0: "GO"} {
		view.Apply(tracking.Event{Type: tracking.EventCountdownTick, Phase: tracking.PhaseCountingDown, Remaining: remaining})
		if got := view.State().Countdown; got != want {
			t.Fatalf("expected countdown %q, got %q", want, got)
		}
	}

	view.Apply(tracking.Event{Type: tracking.EventPhaseChanged, Phase: tracking.PhaseTracking})
	if got := view.State().Countdown; got != "" {
		t.Fatalf("expected countdown cleared once tracking, got %q", got)
	}
}

func TestRouteUpdateFollowsLatestPoint(t *testing.T) {
	view := newView()
	route := []geo.Point{{Lat: 1, Lng: 1}, {Lat: 1.001, Lng: 1.002}}

	view.Apply(tracking.Event{Type: tracking.EventRouteUpdated, Phase: tracking.PhaseTracking, Route: route})

	state := view.State()
	if len(state.Polyline) != 2 {
		t.Fatalf("expected polyline of 2 points, got %d", len(state.Polyline))
	}
	if state.Camera == nil || state.Camera.Target != route[1] || state.Camera.Zoom != 18 {
		t.Fatalf("unexpected camera %+v", state.Camera)
	}
	if state.LastKnown == nil || *state.LastKnown != route[1] {
		t.Fatalf("unexpected last known %v", state.LastKnown)
	}
}

func TestResultFramesWholeRoute(t *testing.T) {
	view := newView()
	route := []geo.Point{{Lat: 1, Lng: 5}, {Lat: 3, Lng: 2}, {Lat: 2, Lng: 4}}

	view.Apply(tracking.Event{Type: tracking.EventResultReady, Phase: tracking.PhaseStopped, Route: route})

	state := view.State()
	if state.Framing == nil {
		t.Fatalf("expected framing")
	}
	want := geo.Bounds{SouthWest: geo.Point{Lat: 1, Lng: 2}, NorthEast: geo.Point{Lat: 3, Lng: 5}}
	if state.Framing.Bounds != want || state.Framing.Padding != 100 {
		t.Fatalf("unexpected framing %+v", state.Framing)
	}
	if state.Framing.Center != (geo.Point{Lat: 2, Lng: 3.5}) {
		t.Fatalf("unexpected framing center %v", state.Framing.Center)
	}
}

func TestResultWithoutRouteSkipsFraming(t *testing.T) {
	view := newView()
	view.Apply(tracking.Event{Type: tracking.EventResultReady, Phase: tracking.PhaseStopped})
	if view.State().Framing != nil {
		t.Fatalf("expected no framing for an empty route")
	}
}

func TestResetRecentersOnLastKnownLocation(t *testing.T) {
	view := newView()
	route := []geo.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	view.Apply(tracking.Event{Type: tracking.EventRouteUpdated, Phase: tracking.PhaseTracking, Route: route})
	view.Apply(tracking.Event{Type: tracking.EventResultReady, Phase: tracking.PhaseStopped, Route: route})

	here := geo.Point{Lat: 9, Lng: 9}
	view.ObserveLocation(here)
	view.Apply(tracking.Event{Type: tracking.EventPhaseChanged, Phase: tracking.PhaseIdle, Previous: tracking.PhaseStopped})

	state := view.State()
	if state.Polyline != nil || state.Framing != nil {
		t.Fatalf("expected drawing cleared, got %+v", state)
	}
	if state.Camera == nil || state.Camera.Target != here {
		t.Fatalf("expected camera on last known location, got %+v", state.Camera)
	}
}

func TestResetWithoutLocationLeavesCamera(t *testing.T) {
	view := newView()
	view.Apply(tracking.Event{Type: tracking.EventPhaseChanged, Phase: tracking.PhaseIdle, Previous: tracking.PhaseCountingDown})

	state := view.State()
	if state.Camera != nil {
		t.Fatalf("expected camera untouched, got %+v", state.Camera)
	}
	if state.Phase != tracking.PhaseIdle {
		t.Fatalf("expected idle phase, got %v", state.Phase)
	}
}

func TestStateIsACopy(t *testing.T) {
	view := newView()
	view.Apply(tracking.Event{Type: tracking.EventRouteUpdated, Phase: tracking.PhaseTracking, Route: []geo.Point{{Lat: 1, Lng: 1}}})

	state := view.State()
	state.Polyline[0].Lat = 50
	state.Camera.Zoom = 3

	again := view.State()
	if again.Polyline[0].Lat != 1 || again.Camera.Zoom != 18 {
		t.Fatalf("view state changed through a copy: %+v", again)
	}
}
