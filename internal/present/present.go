// Package present shows the result of a finished session on a terminal.
package present

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

// DefaultDelay is the pause between stopping and showing the result.
const DefaultDelay = 2500 * time.Millisecond

// Presenter prints each session result after a delay. Resetting the session
// before the delay elapses cancels the pending display.
type Presenter struct {
	out    io.Writer
	delay  time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending uint64
	last    *tracking.Result
	shown   chan tracking.Result
}

// NewPresenter creates a presenter writing to out.
func NewPresenter(out io.Writer, delay time.Duration, logger zerolog.Logger) *Presenter {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Presenter{
		out:    out,
		delay:  delay,
		logger: logger.With().Str("component", "presenter").Logger(),
		shown:  make(chan tracking.Result, 1),
	}
}

// Shown receives each result once it has been printed. Results are dropped
// when nobody is reading.
func (p *Presenter) Shown() <-chan tracking.Result {
	return p.shown
}

// Run applies events from sub until ctx is done or the subscription closes.
// A pending display is cancelled on return.
func (p *Presenter) Run(ctx context.Context, sub *tracking.Subscription) {
	defer p.Cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

// Apply schedules or cancels a display for a single event.
func (p *Presenter) Apply(ev tracking.Event) {
	switch {
	case ev.Type == tracking.EventResultReady && ev.Result != nil:
		p.schedule(*ev.Result)
	case ev.Type == tracking.EventPhaseChanged && ev.Phase == tracking.PhaseIdle:
		p.Cancel()
		p.mu.Lock()
		p.last = nil
		p.mu.Unlock()
	}
}

func (p *Presenter) schedule(result tracking.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.pending++
	generation := p.pending
	p.timer = time.AfterFunc(p.delay, func() {
		p.display(generation, result)
	})
}

// Cancel drops a pending display.
func (p *Presenter) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Presenter) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	// Invalidates a timer that already fired but has not printed yet.
	p.pending++
}

func (p *Presenter) display(generation uint64, result tracking.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.pending {
		return
	}
	p.timer = nil
	p.last = &result

	heading := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgGreen)

	_, _ = heading.Fprintln(p.out, "Session result")
	_, _ = fmt.Fprintf(p.out, "  Distance: %s\n", value.Sprintf("%skm", result.Distance))
	_, _ = fmt.Fprintf(p.out, "  Time:     %s\n", value.Sprint(result.Time))

	p.logger.Info().
		Str("distance", result.Distance).
		Str("time", result.Time).
		Msg("Session result displayed")

	select {
	case p.shown <- result:
	default:
	}
}

// Last returns the most recently displayed result of the current session.
func (p *Presenter) Last() (tracking.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return tracking.Result{}, false
	}
	return *p.last, true
}
