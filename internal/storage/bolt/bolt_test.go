package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/storage/storagetest"
)

func TestResultStore(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	storagetest.RunResultStoreTests(t, store.Results())
}

func TestResultsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runtracker.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	stoppedAt := time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC)
	if err := store.Results().Save(context.Background(), storagetest.Record("morning", stoppedAt)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = store.Close() }()

	record, err := store.Results().Get(context.Background(), "morning")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !record.StoppedAt.Equal(stoppedAt) {
		t.Fatalf("unexpected stop time %v", record.StoppedAt)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runtracker.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
