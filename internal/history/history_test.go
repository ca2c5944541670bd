package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/storage/memory"
	"github.com/goodtune/runtracker/internal/storage/storagetest"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog"
)

func openResults(t *testing.T) storage.ResultStore {
	t.Helper()
	store, err := memory.Open(16)
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	return store.Results()
}

func resultEvent(id string, stoppedAt time.Time) tracking.Event {
	return tracking.Event{
		Type:      tracking.EventResultReady,
		SessionID: id,
		Phase:     tracking.PhaseStopped,
		StartedAt: stoppedAt.Add(-time.Hour - 2*time.Minute - 3*time.Second),
		StoppedAt: stoppedAt,
		Route:     []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0.01, Lng: 0}},
		Result: &tracking.Result{
			Distance:   "1.11",
			Time:       "1: 2: 3",
			DistanceKm: 1.1119,
			Elapsed:    time.Hour + 2*time.Minute + 3*time.Second,
			Points:     2,
		},
	}
}

func TestRecordFromEvent(t *testing.T) {
	stoppedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	record := RecordFromEvent(resultEvent("run-1", stoppedAt))

	if record.ID != "run-1" || record.Distance != "1.11" || record.Time != "1: 2: 3" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.ElapsedMs != 3723000 {
		t.Fatalf("expected 3723000 ms, got %d", record.ElapsedMs)
	}
	if record.Points != 2 || len(record.Route) != 2 {
		t.Fatalf("unexpected route data %+v", record)
	}
}

func TestRecordIgnoresOtherEvents(t *testing.T) {
	recorder := NewRecorder(openResults(t), zerolog.Nop())
	err := recorder.Record(context.Background(), tracking.Event{Type: tracking.EventPhaseChanged})
	if !errors.Is(err, ErrNotResult) {
		t.Fatalf("expected ErrNotResult, got %v", err)
	}
}

func TestRecorderRunSavesResults(t *testing.T) {
	results := openResults(t)
	recorder := NewRecorder(results, zerolog.Nop())

	hub := tracking.NewHub(8, zerolog.Nop())
	sub := hub.Subscribe("history")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recorder.Run(ctx, sub)
		close(done)
	}()

	hub.Publish(tracking.Event{Type: tracking.EventPhaseChanged, Phase: tracking.PhaseStopped})
	hub.Publish(resultEvent("run-7", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	deadline := time.Now().Add(2 * time.Second)
	for {
		record, err := results.Get(context.Background(), "run-7")
		if err == nil {
			if record.Distance != "1.11" {
				t.Fatalf("unexpected record %+v", record)
			}
			break
		}
		if !errors.Is(err, storage.ErrNotFound) || time.Now().After(deadline) {
			t.Fatalf("result never saved: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("recorder did not stop after cancel")
	}
}

func TestRecorderStopsWhenSubscriptionCloses(t *testing.T) {
	recorder := NewRecorder(openResults(t), zerolog.Nop())
	hub := tracking.NewHub(8, zerolog.Nop())
	sub := hub.Subscribe("history")

	done := make(chan struct{})
	go func() {
		recorder.Run(context.Background(), sub)
		close(done)
	}()

	hub.Unsubscribe(sub)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("recorder did not stop after unsubscribe")
	}
}

func TestNextPrune(t *testing.T) {
	ps, err := NewPruneScheduler(openResults(t), "03:30", 30, zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	before := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	if got := ps.nextPrune(before); !got.Equal(time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected same-day prune, got %v", got)
	}

	after := time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)
	if got := ps.nextPrune(after); !got.Equal(time.Date(2024, 5, 2, 3, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected next-day prune, got %v", got)
	}
}

func TestPruneRemovesExpiredResults(t *testing.T) {
	results := openResults(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)

	if err := results.Save(ctx, storagetest.Record("old", now.AddDate(0, 0, -31))); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := results.Save(ctx, storagetest.Record("recent", now.AddDate(0, 0, -2))); err != nil {
		t.Fatalf("save recent: %v", err)
	}

	ps, err := NewPruneScheduler(results, "03:00", 30, zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ps.clock = &tracking.TestClock{CurrentTime: now}

	deleted, err := ps.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted result, got %d", deleted)
	}
	if _, err := results.Get(ctx, "recent"); err != nil {
		t.Fatalf("recent result should remain: %v", err)
	}
}

func TestPruneSchedulerValidation(t *testing.T) {
	if _, err := NewPruneScheduler(openResults(t), "3pm", 30, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for malformed prune time")
	}
	if _, err := NewPruneScheduler(openResults(t), "03:00", -1, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for negative retention")
	}

	ps, err := NewPruneScheduler(openResults(t), "03:00", 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ps.Start()
	ps.Stop()
	ps.Stop()
}
