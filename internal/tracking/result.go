package tracking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
)

// NoDistance is reported when fewer than two points were recorded.
const NoDistance = "0.00"

// ComputeResult summarises a finished session.
func ComputeResult(route []geo.Point, startedAt, stoppedAt time.Time) Result {
	km, distance := RouteDistance(route)
	elapsed := stoppedAt.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	return Result{
		Distance:   distance,
		Time:       FormatElapsed(elapsed.Milliseconds()),
		DistanceKm: km,
		Elapsed:    elapsed,
		Points:     len(route),
	}
}

// RouteDistance returns the straight-line distance in kilometers between the
// first and last point of the route, along with its display form.
//
// Intermediate points are ignored, so a route that doubles back reports less
// than the distance actually covered. Results shown to users have always
// been computed this way and stay compatible with it.
func RouteDistance(route []geo.Point) (float64, string) {
	if len(route) < 2 {
		return 0, NoDistance
	}
	km := geo.DistanceKm(route[0], route[len(route)-1])
	return km, FormatDistance(km)
}

// FormatDistance renders kilometers with at most two decimals, rounding the
// exact binary value half to even and dropping trailing zeros ("1.5", "0",
// "12.35"). 1.115 is stored just below the tie and prints "1.11".
func FormatDistance(km float64) string {
	s := strconv.FormatFloat(km, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" || s == "-0" {
		return "0"
	}
	return s
}

// FormatElapsed renders a millisecond duration as "h: m: s". Hours wrap at 24.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := (ms / (1000 * 60 * 60)) % 24

	return fmt.Sprintf("%d: %d: %d", hours, minutes, seconds)
}
