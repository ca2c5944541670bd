// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/storage"
)

// Record builds a record that stopped at the given time.
func Record(id string, stoppedAt time.Time) storage.SessionRecord {
	return storage.SessionRecord{
		ID:         id,
		StartedAt:  stoppedAt.Add(-10 * time.Minute),
		StoppedAt:  stoppedAt,
		Distance:   "1.11",
		Time:       "0: 10: 0",
		DistanceKm: 1.11,
		ElapsedMs:  600000,
		Points:     2,
		Route:      []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0.01, Lng: 0}},
	}
}

// RunResultStoreTests exercises a ResultStore that starts out empty.
func RunResultStoreTests(t *testing.T, results storage.ResultStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	if _, err := results.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := results.Save(ctx, storage.SessionRecord{}); err == nil {
		t.Fatalf("expected invalid record to be rejected")
	}

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := results.Save(ctx, Record(id, base.Add(time.Duration(i)*24*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := results.Get(ctx, "run-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Distance != "1.11" || got.Time != "0: 10: 0" || got.Points != 2 || len(got.Route) != 2 {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.StoppedAt.Equal(base.Add(24 * time.Hour)) {
		t.Fatalf("unexpected stop time %v", got.StoppedAt)
	}

	list, err := results.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "run-c" || list[2].ID != "run-a" {
		t.Fatalf("expected newest first, got %v", ids(list))
	}

	limited, err := results.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-c" || limited[1].ID != "run-b" {
		t.Fatalf("unexpected limited list %v", ids(limited))
	}

	// Resaving keeps a single copy of the record.
	moved := Record("run-a", base.Add(5*24*time.Hour))
	if err := results.Save(ctx, moved); err != nil {
		t.Fatalf("resave: %v", err)
	}
	list, err = results.List(ctx, 0)
	if err != nil {
		t.Fatalf("list after resave: %v", err)
	}
	if len(list) != 3 || list[0].ID != "run-a" {
		t.Fatalf("unexpected list after resave %v", ids(list))
	}

	deleted, err := results.DeleteBefore(ctx, base.Add(36*time.Hour))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted record, got %d", deleted)
	}
	if _, err := results.Get(ctx, "run-b"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected run-b to be pruned, got %v", err)
	}

	list, err = results.List(ctx, 0)
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if len(list) != 2 || list[0].ID != "run-a" || list[1].ID != "run-c" {
		t.Fatalf("unexpected list after prune %v", ids(list))
	}
}

func ids(records []storage.SessionRecord) []string {
	out := make([]string, len(records))
	for i, record := range records {
		out[i] = record.ID
	}
	return out
}
