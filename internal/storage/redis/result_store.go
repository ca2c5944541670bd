package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/runtracker/internal/storage"
	"github.com/redis/go-redis/v9"
)

var (
	saveResult          = redis.NewScript(saveResultScript)
	deleteResultsBefore = redis.NewScript(deleteResultsBeforeScript)
)

type resultStore struct {
	client *redis.Client
}

// Save stores a result hash and indexes it by stop time
func (s *resultStore) Save(ctx context.Context, record storage.SessionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	route, err := json.Marshal(record.Route)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}

	keys := []string{resultKey(record.ID), resultIndexKey}
	args := []interface{}{
		record.ID,
		record.StoppedAt.UnixMilli(),
		record.StartedAt.Format(time.RFC3339Nano),
		record.StoppedAt.Format(time.RFC3339Nano),
		record.Distance,
		record.Time,
		strconv.FormatFloat(record.DistanceKm, 'f', -1, 64),
		record.ElapsedMs,
		record.Points,
		string(route),
	}

	return saveResult.Run(ctx, s.client, keys, args...).Err()
}

// Get retrieves a result by session ID
func (s *resultStore) Get(ctx context.Context, id string) (*storage.SessionRecord, error) {
	data, err := s.client.HGetAll(ctx, resultKey(id)).Result()
	if err != nil {
		return nil, err
	}
	return parseSessionRecord(data)
}

// List returns results newest first
func (s *resultStore) List(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, resultIndexKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	records := make([]storage.SessionRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, resultKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	for _, cmd := range cmds {
		record, err := parseSessionRecord(cmd.Val())
		if errors.Is(err, storage.ErrNotFound) {
			// Index entry outlived its hash
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	// Same-millisecond scores come back in member order; normalise.
	storage.SortNewestFirst(records)
	return records, nil
}

// DeleteBefore removes results that stopped before cutoff
func (s *resultStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	keys := []string{resultIndexKey}
	deleted, err := deleteResultsBefore.Run(ctx, s.client, keys, resultKeyPrefix, cutoff.UnixMilli()).Int()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
