package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/storage/storagetest"
)

func TestResultStore(t *testing.T) {
	store, err := Open(10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()

	storagetest.RunResultStoreTests(t, store.Results())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := Open(2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	results := store.Results()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		if err := results.Save(ctx, storagetest.Record(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	if _, err := results.Get(ctx, "first"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected first to be evicted, got %v", err)
	}
	list, err := results.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
}

func TestSaveCopiesRoute(t *testing.T) {
	store, err := Open(0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	record := storagetest.Record("copy", time.Now())
	if err := store.Results().Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	record.Route[0].Lat = 45

	got, err := store.Results().Get(ctx, "copy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Route[0].Lat != 0 {
		t.Fatalf("stored route changed with caller slice: %v", got.Route)
	}
}
