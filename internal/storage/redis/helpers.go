package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/runtracker/internal/storage"
)

const (
	resultKeyPrefix = "runtracker:result:"
	resultIndexKey  = "runtracker:results"
)

func resultKey(id string) string {
	return resultKeyPrefix + id
}

// parseSessionRecord converts a Redis hash to SessionRecord
func parseSessionRecord(data map[string]string) (*storage.SessionRecord, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	startedAt, err := time.Parse(time.RFC3339Nano, data["started_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}

	stoppedAt, err := time.Parse(time.RFC3339Nano, data["stopped_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse stopped_at: %w", err)
	}

	distanceKm, err := strconv.ParseFloat(data["distance_km"], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse distance_km: %w", err)
	}

	elapsedMs, err := strconv.ParseInt(data["elapsed_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse elapsed_ms: %w", err)
	}

	points, err := strconv.Atoi(data["points"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse points: %w", err)
	}

	record := &storage.SessionRecord{
		ID:         data["id"],
		StartedAt:  startedAt,
		StoppedAt:  stoppedAt,
		Distance:   data["distance"],
		Time:       data["time"],
		DistanceKm: distanceKm,
		ElapsedMs:  elapsedMs,
		Points:     points,
	}

	if route := data["route"]; route != "" {
		if err := json.Unmarshal([]byte(route), &record.Route); err != nil {
			return nil, fmt.Errorf("failed to parse route: %w", err)
		}
	}

	return record, nil
}
