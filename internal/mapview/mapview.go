// Package mapview keeps the view model of the tracking map: the drawn route,
// where the camera points and the countdown overlay.
package mapview

import (
	"context"
	"sync"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

// DefaultBoundsPadding is the edge padding used when framing a whole route.
const DefaultBoundsPadding = 100

// Config holds map view configuration
type Config struct {
	FollowZoom    float32
	BoundsPadding int
}

// State is a copy of the view model.
type State struct {
	Phase     tracking.Phase `json:"phase"`
	Polyline  []geo.Point    `json:"polyline"`
	Camera    *geo.Camera    `json:"camera,omitempty"`
	Framing   *geo.Framing   `json:"framing,omitempty"`
	LastKnown *geo.Point     `json:"last_known,omitempty"`
	Countdown string         `json:"countdown,omitempty"`
}

// View applies session events to the map view model.
type View struct {
	config Config
	logger zerolog.Logger

	mu    sync.RWMutex
	state State
}

// NewView creates an empty map view.
func NewView(config Config, logger zerolog.Logger) *View {
	if config.FollowZoom <= 0 {
		config.FollowZoom = geo.DefaultFollowZoom
	}
	if config.BoundsPadding < 0 {
		config.BoundsPadding = DefaultBoundsPadding
	}
	return &View{
		config: config,
		logger: logger.With().Str("component", "map-view").Logger(),
	}
}

// Run applies events from sub until ctx is done or the subscription closes.
func (v *View) Run(ctx context.Context, sub *tracking.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			v.Apply(ev)
		}
	}
}

// ObserveLocation remembers p as the device's last known location without
// touching the drawn route.
func (v *View) ObserveLocation(p geo.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.LastKnown = &p
}

// Apply updates the view for a single event.
func (v *View) Apply(ev tracking.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Phase = ev.Phase

	switch ev.Type {
	case tracking.EventCountdownTick:
		v.state.Countdown = tracking.CountdownLabel(ev.Remaining)

	case tracking.EventRouteUpdated:
		v.state.Polyline = ev.Route
		if n := len(ev.Route); n > 0 {
			latest := ev.Route[n-1]
			camera := geo.FollowCamera(latest, v.config.FollowZoom)
			v.state.Camera = &camera
			v.state.LastKnown = &latest
		}

	case tracking.EventResultReady:
		v.state.Polyline = ev.Route
		if bounds, ok := geo.BoundsOf(ev.Route); ok {
			framing := geo.FrameBounds(bounds, v.config.BoundsPadding)
			v.state.Framing = &framing
		}

	case tracking.EventPhaseChanged:
		switch ev.Phase {
		case tracking.PhaseTracking:
			v.state.Countdown = ""
		case tracking.PhaseIdle:
			v.resetLocked()
		}
	}
}

// resetLocked clears the drawing and recenters on the last known location.
func (v *View) resetLocked() {
	v.state.Polyline = nil
	v.state.Framing = nil
	v.state.Countdown = ""

	if v.state.LastKnown == nil {
		v.logger.Debug().Msg("No last known location, camera left in place")
		return
	}
	camera := geo.FollowCamera(*v.state.LastKnown, v.config.FollowZoom)
	v.state.Camera = &camera
}

// State returns a copy of the current view model.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := v.state
	if v.state.Polyline != nil {
		out.Polyline = append([]geo.Point(nil), v.state.Polyline...)
	}
	if v.state.Camera != nil {
		camera := *v.state.Camera
		out.Camera = &camera
	}
	if v.state.Framing != nil {
		framing := *v.state.Framing
		out.Framing = &framing
	}
	if v.state.LastKnown != nil {
		last := *v.state.LastKnown
		out.LastKnown = &last
	}
	return out
}
