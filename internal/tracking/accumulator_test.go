package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/rs/zerolog"
)

func TestAddPointIgnoredOutsideTracking(t *testing.T) {
	rig := newTestRig(t, nil, time.Hour)

	if rig.accumulator.AddPoint(geo.Point{Lat: 1, Lng: 1}) {
		t.Fatalf("expected point to be ignored while idle")
	}

	if err := rig.controller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if rig.accumulator.AddPoint(geo.Point{Lat: 2, Lng: 2}) {
		t.Fatalf("expected point to be ignored while counting down")
	}

	if route := rig.controller.State().Route(); len(route) != 0 {
		t.Fatalf("expected empty route, got %v", route)
	}
}

func TestAddPointIgnoredAfterStop(t *testing.T) {
	rig := newTestRig(t, nil, time.Millisecond)
	rig.startTracking(t)

	rig.accumulator.AddPoint(geo.Point{Lat: 1, Lng: 1})
	if _, err := rig.controller.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if rig.accumulator.AddPoint(geo.Point{Lat: 2, Lng: 2}) {
		t.Fatalf("expected point to be ignored after stop")
	}
	if route := rig.controller.State().Route(); len(route) != 1 {
		t.Fatalf("expected route of 1 point, got %d", len(route))
	}
}

func TestRunPreservesArrivalOrder(t *testing.T) {
	rig := newTestRig(t, nil, time.Millisecond)
	rig.startTracking(t)

	in := make(chan geo.Point)
	done := make(chan error, 1)
	go func() {
		done <- rig.accumulator.Run(context.Background(), in)
	}()

	want := []geo.Point{{Lat: 3, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 3, Lng: 0}, {Lat: 2, Lng: 0}}
	for _, p := range want {
		in <- p
	}
	close(in)

	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	got := rig.controller.State().Route()
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v at %d, got %v", want[i], i, got[i])
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	acc := NewAccumulator(NewState(nil, nil), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := acc.Run(ctx, make(chan geo.Point)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestRouteLengthNonDecreasingWhileTracking(t *testing.T) {
	rig := newTestRig(t, nil, time.Millisecond)
	rig.startTracking(t)

	last := 0
	for i := 0; i < 10; i++ {
		rig.accumulator.AddPoint(geo.Point{Lat: float64(i), Lng: 0})
		n := len(rig.controller.State().Route())
		if n < last {
			t.Fatalf("route shrank from %d to %d", last, n)
		}
		last = n
	}
}

func TestAccumulatedRouteFeedsResult(t *testing.T) {
	rig := newTestRig(t, nil, time.Millisecond)

	if snap := rig.controller.Snapshot(); snap.Result != nil {
		t.Fatalf("expected no result while idle, got %+v", snap.Result)
	}

	rig.startTracking(t)
	rig.accumulator.AddPoint(geo.Point{Lat: 0, Lng: 0})
	rig.clock.Advance(90 * time.Second)
	stopped, err := rig.controller.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	snap := rig.controller.Snapshot()
	if snap.Result == nil || *snap.Result != stopped {
		t.Fatalf("expected snapshot result %+v, got %+v", stopped, snap.Result)
	}
	if stopped.Distance != NoDistance || stopped.Time != "0: 1: 30" || stopped.Points != 1 {
		t.Fatalf("unexpected result %+v", stopped)
	}
}

func TestClearOnlyWhenIdle(t *testing.T) {
	rig := newTestRig(t, nil, time.Millisecond)
	rig.startTracking(t)
	rig.accumulator.AddPoint(geo.Point{Lat: 1, Lng: 1})

	if err := rig.accumulator.Clear(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected clear while tracking to be rejected, got %v", err)
	}
	if len(rig.controller.State().Route()) != 1 {
		t.Fatalf("expected route untouched")
	}

	if _, err := rig.controller.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := rig.controller.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := rig.accumulator.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
}
