package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := DistanceKm(Point{Lat: -6.2, Lng: 106.816}, Point{Lat: -6.9175, Lng: 107.6191})
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMetersSamePoint(t *testing.T) {
	p := Point{Lat: 51.5, Lng: -0.12}
	if d := DistanceMeters(p, p); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceMetersOneDegreeLatitude(t *testing.T) {
	d := DistanceMeters(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0})
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 0.001 {
		t.Fatalf("expected %v, got %v", want, d)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Point{Lat: 40.7128, Lng: -74.0060}
	b := Point{Lat: 34.0522, Lng: -118.2437}
	if math.Abs(DistanceMeters(a, b)-DistanceMeters(b, a)) > 1e-6 {
		t.Fatalf("distance not symmetric")
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Fatalf("expected no bounds for empty route")
	}

	b, ok := BoundsOf([]Point{{Lat: 1, Lng: 5}, {Lat: -2, Lng: 3}, {Lat: 0, Lng: 7}})
	if !ok {
		t.Fatalf("expected bounds")
	}
	if b.SouthWest != (Point{Lat: -2, Lng: 3}) {
		t.Errorf("unexpected south west: %v", b.SouthWest)
	}
	if b.NorthEast != (Point{Lat: 1, Lng: 7}) {
		t.Errorf("unexpected north east: %v", b.NorthEast)
	}
	if c := b.Center(); c != (Point{Lat: -0.5, Lng: 5}) {
		t.Errorf("unexpected center: %v", c)
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{Lat: 51.5, Lng: -0.12}, true},
		{Point{Lat: -90, Lng: 180}, true},
		{Point{Lat: 90.1, Lng: 0}, false},
		{Point{Lat: 0, Lng: -180.5}, false},
		{Point{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.want {
			t.Errorf("Valid(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
