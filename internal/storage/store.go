package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Results() ResultStore
}

// ResultStore manages finished session results.
type ResultStore interface {
	// Save creates or replaces the record with the same ID.
	Save(ctx context.Context, record SessionRecord) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	// List returns records newest first. A limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]SessionRecord, error)
	// DeleteBefore removes records that stopped before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
