package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	// Host carries the full "host:port" so Port stays 0
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestResultStore(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	storagetest.RunResultStoreTests(t, store.Results())
}

func TestResultStoreLayout(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	stoppedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := store.Results().Save(context.Background(), storagetest.Record("run-1", stoppedAt)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := mr.HGet("runtracker:result:run-1", "distance"); got != "1.11" {
		t.Errorf("Expected distance field 1.11, got %q", got)
	}
	score, err := mr.ZScore("runtracker:results", "run-1")
	if err != nil {
		t.Fatalf("ZScore failed: %v", err)
	}
	if int64(score) != stoppedAt.UnixMilli() {
		t.Errorf("Expected score %d, got %v", stoppedAt.UnixMilli(), score)
	}
}

func TestListSkipsDanglingIndexEntries(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	stoppedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := store.Results().Save(ctx, storagetest.Record("kept", stoppedAt)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := mr.ZAdd("runtracker:results", float64(stoppedAt.Add(time.Hour).UnixMilli()), "gone"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}

	records, err := store.Results().List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "kept" {
		t.Fatalf("Expected only the kept record, got %+v", records)
	}

	if _, err := store.Results().Get(ctx, "gone"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestNewClientRejectsBadTimeouts(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Host: "localhost", Port: 6379, DialTimeout: "soon"})
	if err == nil {
		t.Fatal("Expected error for invalid dial timeout")
	}
}
