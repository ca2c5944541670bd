// Package geo holds the geographic primitives shared by the tracker: points,
// great-circle distance, bounding boxes and camera positions.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius used for spherical distance.
const EarthRadiusMeters = 6371009.0

// Point is a location sample in floating-point degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Valid reports whether p is a finite coordinate within latitude and
// longitude range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := hav(dLat) + math.Cos(lat1)*math.Cos(lat2)*hav(dLng)
	return 2 * math.Asin(math.Sqrt(math.Min(h, 1))) * EarthRadiusMeters
}

// DistanceKm is DistanceMeters expressed in kilometers.
func DistanceKm(a, b Point) float64 {
	return DistanceMeters(a, b) / 1000
}

func hav(x float64) float64 {
	s := math.Sin(x / 2)
	return s * s
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
