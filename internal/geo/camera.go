package geo

// DefaultFollowZoom is the zoom level used when following the latest sample.
const DefaultFollowZoom = 18

// Camera describes where the map view is pointed.
type Camera struct {
	Target Point   `json:"target"`
	Zoom   float32 `json:"zoom"`
}

// FollowCamera centers on p at the given zoom.
func FollowCamera(p Point, zoom float32) Camera {
	return Camera{Target: p, Zoom: zoom}
}

// Framing is a camera update that fits a bounding box with edge padding in
// pixels, aimed at the box center.
type Framing struct {
	Bounds  Bounds `json:"bounds"`
	Center  Point  `json:"center"`
	Padding int    `json:"padding"`
}

// FrameBounds fits b with the given padding.
func FrameBounds(b Bounds, padding int) Framing {
	return Framing{Bounds: b, Center: b.Center(), Padding: padding}
}
