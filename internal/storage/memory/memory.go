// Package memory keeps session results in a bounded in-process cache. The
// oldest-used records are evicted once the cache is full.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/runtracker/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when Open is given a non-positive size.
const DefaultSize = 500

// Store implements storage.Store on top of an LRU cache.
type Store struct {
	results *resultStore
}

// Open creates a memory store holding at most size records.
func Open(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, storage.SessionRecord](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Store{results: &resultStore{cache: cache}}, nil
}

// Close drops every cached record.
func (s *Store) Close() error {
	s.results.cache.Purge()
	return nil
}

// Results returns the result store.
func (s *Store) Results() storage.ResultStore { return s.results }

type resultStore struct {
	cache *lru.Cache[string, storage.SessionRecord]
}

func (s *resultStore) Save(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}
	record.Route = append(record.Route[:0:0], record.Route...)
	s.cache.Add(record.ID, record)
	return nil
}

func (s *resultStore) Get(ctx context.Context, id string) (*storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, ok := s.cache.Get(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

func (s *resultStore) List(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := s.cache.Values()
	storage.SortNewestFirst(records)
	return storage.Limit(records, limit), nil
}

func (s *resultStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for _, id := range s.cache.Keys() {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		record, ok := s.cache.Peek(id)
		if ok && record.StoppedAt.Before(cutoff) {
			s.cache.Remove(id)
			deleted++
		}
	}
	return deleted, nil
}
