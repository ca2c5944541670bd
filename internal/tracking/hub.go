package tracking

import (
	"sync"

	"github.com/goodtune/runtracker/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 64

// Subscription receives events published after it was created.
type Subscription struct {
	Name string
	C    <-chan Event

	ch chan Event
}

// Hub fans session events out to subscribers. Publish never blocks: an event
// for a subscriber whose buffer is full is dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger zerolog.Logger
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.With().Str("component", "event-hub").Logger(),
	}
}

// Subscribe registers a named subscriber. The name is used in logs and
// metrics only.
func (h *Hub) Subscribe(name string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{Name: name, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Publish delivers ev to every subscriber that has room for it.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.WithLabelValues(sub.Name).Inc()
			h.logger.Warn().
				Str("subscriber", sub.Name).
				Str("event", string(ev.Type)).
				Msg("Subscriber buffer full, event dropped")
		}
	}
}

// Close unsubscribes everyone. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		close(sub.ch)
	}
	h.subs = make(map[*Subscription]struct{})
	h.closed = true
}
