package present

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resultEvent() tracking.Event {
	return tracking.Event{
		Type:   tracking.EventResultReady,
		Phase:  tracking.PhaseStopped,
		Result: &tracking.Result{Distance: "2.5", Time: "0: 15: 42"},
	}
}

func TestResultShownAfterDelay(t *testing.T) {
	out := &syncBuffer{}
	p := NewPresenter(out, 20*time.Millisecond, zerolog.Nop())

	p.Apply(resultEvent())
	if out.String() != "" {
		t.Fatalf("expected nothing printed before the delay")
	}

	select {
	case result := <-p.Shown():
		if result.Distance != "2.5" {
			t.Fatalf("unexpected result %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("result was never shown")
	}

	text := out.String()
	if !strings.Contains(text, "2.5km") || !strings.Contains(text, "0: 15: 42") {
		t.Fatalf("unexpected output %q", text)
	}
	if last, ok := p.Last(); !ok || last.Time != "0: 15: 42" {
		t.Fatalf("unexpected last result %+v", last)
	}
}

func TestResetCancelsPendingDisplay(t *testing.T) {
	out := &syncBuffer{}
	p := NewPresenter(out, 50*time.Millisecond, zerolog.Nop())

	p.Apply(resultEvent())
	p.Apply(tracking.Event{Type: tracking.EventPhaseChanged, Phase: tracking.PhaseIdle, Previous: tracking.PhaseStopped})

	select {
	case result := <-p.Shown():
		t.Fatalf("result shown after reset: %+v", result)
	case <-time.After(200 * time.Millisecond):
	}

	if out.String() != "" {
		t.Fatalf("expected no output, got %q", out.String())
	}
	if _, ok := p.Last(); ok {
		t.Fatalf("expected no last result after reset")
	}
}
