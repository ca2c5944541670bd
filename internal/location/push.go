package location

import (
	"context"
	"errors"
	"sync"

	"github.com/goodtune/runtracker/internal/geo"
)

var (
	// ErrNotSubscribed is returned when a point is pushed while no session
	// is recording.
	ErrNotSubscribed = errors.New("location: no active subscription")

	// ErrBacklogFull is returned when pushed points are not being consumed.
	ErrBacklogFull = errors.New("location: push backlog full")
)

// DefaultPushBacklog is the number of pushed points buffered for the feed.
const DefaultPushBacklog = 64

// Push is a provider fed by external callers, such as the HTTP API.
type Push struct {
	in chan geo.Point

	mu        sync.Mutex
	streaming int
}

// NewPush creates a push provider.
func NewPush(backlog int) *Push {
	if backlog <= 0 {
		backlog = DefaultPushBacklog
	}
	return &Push{in: make(chan geo.Point, backlog)}
}

// Name identifies the provider.
func (p *Push) Name() string { return "push" }

// Publish hands a sample to the active stream.
func (p *Push) Publish(pt geo.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streaming == 0 {
		return ErrNotSubscribed
	}

	select {
	case p.in <- pt:
		return nil
	default:
		return ErrBacklogFull
	}
}

// Stream forwards published points until ctx is cancelled.
func (p *Push) Stream(ctx context.Context, out chan<- geo.Point) error {
	p.mu.Lock()
	p.streaming++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.streaming--
		if p.streaming == 0 {
			p.drain()
		}
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pt := <-p.in:
			select {
			case out <- pt:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// drain discards points left over from a finished subscription.
func (p *Push) drain() {
	for {
		select {
		case <-p.in:
		default:
			return
		}
	}
}
