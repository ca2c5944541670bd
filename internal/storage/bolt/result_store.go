package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goodtune/runtracker/internal/storage"
	"go.etcd.io/bbolt"
)

type resultStore struct {
	db *bbolt.DB
}

func (s *resultStore) Save(ctx context.Context, record storage.SessionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := marshal(record)
	if err != nil {
		return err
	}
	key := resultKey(record.StoppedAt, record.ID)

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		results := tx.Bucket([]byte(bucketResults))
		ids := tx.Bucket([]byte(bucketResultIDs))
		if results == nil || ids == nil {
			return fmt.Errorf("result buckets missing")
		}

		// A resave may move the record to a new position.
		if previous := ids.Get([]byte(record.ID)); previous != nil && !bytes.Equal(previous, key) {
			if err := results.Delete(previous); err != nil {
				return err
			}
		}

		if err := results.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(record.ID), key)
	})
}

func (s *resultStore) Get(ctx context.Context, id string) (*storage.SessionRecord, error) {
	var record *storage.SessionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key := tx.Bucket([]byte(bucketResultIDs)).Get([]byte(id))
		if key == nil {
			return storage.ErrNotFound
		}
		value := tx.Bucket([]byte(bucketResults)).Get(key)
		if value == nil {
			return storage.ErrNotFound
		}
		var result storage.SessionRecord
		if err := unmarshal(value, &result); err != nil {
			return err
		}
		record = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *resultStore) List(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	records := make([]storage.SessionRecord, 0)
	return records, s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketResults)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if limit > 0 && len(records) >= limit {
				break
			}
			var record storage.SessionRecord
			if err := unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
}

func (s *resultStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	bound := cutoffKey(cutoff)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		results := tx.Bucket([]byte(bucketResults))
		ids := tx.Bucket([]byte(bucketResultIDs))

		var keys, recordIDs [][]byte
		c := results.Cursor()
		for k, v := c.First(); k != nil && bytes.Compare(k, bound) < 0; k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var record storage.SessionRecord
			if err := unmarshal(v, &record); err != nil {
				return err
			}
			keys = append(keys, append([]byte(nil), k...))
			recordIDs = append(recordIDs, []byte(record.ID))
		}

		for i, key := range keys {
			if err := results.Delete(key); err != nil {
				return err
			}
			if err := ids.Delete(recordIDs[i]); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
