package tracking

import (
	"testing"
	"time"

	"github.com/goodtune/runtracker/internal/geo"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0: 0: 0"},
		{59_999, "0: 0: 59"},
		{3_723_000, "1: 2: 3"},
		{90_000_000, "1: 0: 0"}, // 25h wraps
		{-5_000, "0: 0: 0"},
	}

	for _, tt := range tests {
		if got := FormatElapsed(tt.ms); got != tt.want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "0"},
		{2, "2"},
		{1.5, "1.5"},
		{3.14159, "3.14"},
		{0.125, "0.12"}, // half to even
		{0.375, "0.38"},
		{1.115, "1.11"}, // stored as 1.11499999...
		{2.675, "2.67"}, // stored as 2.67499999...
		{0.001, "0"},
		{10.999, "11"},
	}

	for _, tt := range tests {
		if got := FormatDistance(tt.km); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}

func TestRouteDistanceFewerThanTwoPoints(t *testing.T) {
	for _, route := range [][]geo.Point{nil, {{Lat: 1, Lng: 1}}} {
		km, s := RouteDistance(route)
		if s != NoDistance || km != 0 {
			t.Errorf("expected %q for %d points, got %q (%v)", NoDistance, len(route), s, km)
		}
	}
}

func TestRouteDistanceUsesFirstAndLastPointOnly(t *testing.T) {
	a := geo.Point{Lat: 0, Lng: 0}
	c := geo.Point{Lat: 0, Lng: 0.01}

	direct, _ := RouteDistance([]geo.Point{a, c})
	detour, _ := RouteDistance([]geo.Point{a, {Lat: 1, Lng: 1}, {Lat: -3, Lng: 2}, c})

	if direct != detour {
		t.Fatalf("expected distance to ignore intermediate points: %v != %v", direct, detour)
	}
	if direct <= 0 {
		t.Fatalf("expected positive distance, got %v", direct)
	}
}

func TestComputeResult(t *testing.T) {
	start := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour + 2*time.Minute + 3*time.Second)
	route := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.5}, {Lat: 0.01, Lng: 0}}

	res := ComputeResult(route, start, stop)

	if res.Time != "1: 2: 3" {
		t.Errorf("expected time 1: 2: 3, got %q", res.Time)
	}
	if res.Elapsed != stop.Sub(start) {
		t.Errorf("unexpected elapsed: %v", res.Elapsed)
	}
	// 0.01 degrees of latitude is about 1.11 km.
	if res.Distance != "1.11" {
		t.Errorf("expected distance 1.11, got %q", res.Distance)
	}
	if res.Points != 3 {
		t.Errorf("expected 3 points, got %d", res.Points)
	}
}
