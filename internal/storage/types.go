package storage

import (
	"errors"
	"sort"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
)

// SessionRecord is a finished tracking session as kept in history.
type SessionRecord struct {
	ID         string      `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	StoppedAt  time.Time   `json:"stopped_at"`
	Distance   string      `json:"distance"`
	Time       string      `json:"time"`
	DistanceKm float64     `json:"distance_km"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	Points     int         `json:"points"`
	Route      []geo.Point `json:"route,omitempty"`
}

// Validate checks the fields every backend relies on.
func (r SessionRecord) Validate() error {
	if r.ID == "" {
		return errors.New("session record requires an id")
	}
	if r.StoppedAt.IsZero() {
		return errors.New("session record requires a stop time")
	}
	return nil
}

// SortNewestFirst orders records by stop time, latest first, breaking ties by ID.
func SortNewestFirst(records []SessionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].StoppedAt.Equal(records[j].StoppedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].StoppedAt.After(records[j].StoppedAt)
	})
}

// Limit truncates records to at most limit entries. A limit <= 0 keeps all.
func Limit(records []SessionRecord, limit int) []SessionRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
