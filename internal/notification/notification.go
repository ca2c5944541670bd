// Package notification maintains the ongoing "distance traveled"
// notification shown while a session is tracking.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

// Title is the notification heading.
const Title = "Distance traveled"

// Notification is the content currently on display.
type Notification struct {
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	DistanceKm float64   `json:"distance_km"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Notifier shows the notification when tracking begins, refreshes it on
// every recorded sample and cancels it when the session stops.
type Notifier struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	current *Notification
}

// NewNotifier creates a notifier with nothing on display.
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

// Run applies events from sub until ctx is done or the subscription closes.
func (n *Notifier) Run(ctx context.Context, sub *tracking.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			n.Apply(ev)
		}
	}
}

// Apply updates the notification for a single event.
func (n *Notifier) Apply(ev tracking.Event) {
	switch {
	case ev.Type == tracking.EventPhaseChanged && ev.Phase == tracking.PhaseTracking:
		n.show(0, tracking.NoDistance, ev.At)
	case ev.Type == tracking.EventRouteUpdated && ev.Phase == tracking.PhaseTracking:
		km, text := tracking.RouteDistance(ev.Route)
		n.show(km, text, ev.At)
	case ev.Type == tracking.EventPhaseChanged && ev.Previous == tracking.PhaseTracking:
		n.cancel()
	}
}

func (n *Notifier) show(km float64, distance string, at time.Time) {
	note := &Notification{
		Title:      Title,
		Text:       distance + "km",
		DistanceKm: km,
		UpdatedAt:  at,
	}

	n.mu.Lock()
	n.current = note
	n.mu.Unlock()

	metrics.NotificationDistance.Set(km)
	n.logger.Debug().
		Str("title", note.Title).
		Str("text", note.Text).
		Msg("Notification updated")
}

func (n *Notifier) cancel() {
	n.mu.Lock()
	shown := n.current != nil
	n.current = nil
	n.mu.Unlock()

	if shown {
		metrics.NotificationDistance.Set(0)
		n.logger.Debug().Msg("Notification cancelled")
	}
}

// Current returns the notification on display, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}
