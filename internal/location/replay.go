package location

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
)

// Replay emits a fixed list of points, one per interval.
type Replay struct {
	points   []geo.Point
	interval time.Duration
}

// NewReplay creates a replay provider.
func NewReplay(points []geo.Point, interval time.Duration) *Replay {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Replay{points: points, interval: interval}
}

// LoadReplayFile reads a JSON array of {"lat":..,"lng":..} objects.
func LoadReplayFile(path string) ([]geo.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}

	var points []geo.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to parse replay file %s: %w", path, err)
	}
	return points, nil
}

// Name identifies the provider.
func (r *Replay) Name() string { return "replay" }

// Stream sends the first point immediately and each later point one interval
// after the previous one.
func (r *Replay) Stream(ctx context.Context, out chan<- geo.Point) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i, p := range r.points {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		select {
		case out <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
