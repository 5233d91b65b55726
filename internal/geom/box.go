// Package geom holds the bounding box value type and the overlap metric
// used for detection-to-track association.
package geom

import "math"

// Box is an axis-aligned bounding box with detection and tracking scores.
// A raw detection carries TrackID 0 (no track) and TrackScore 0; boxes
// emitted by the tracking engine carry the owning track's id and the
// backend's latest confidence. Track ids start at 1, so 0 is a safe
// sentinel.
type Box struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Score      float64 `json:"score"`
	TrackID    int64   `json:"track_id"`
	TrackScore float64 `json:"track_score"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the area of the box. Negative extents yield a
// meaningless value; callers that care should check Width/Height first.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// IOU computes the Intersection-over-Union of two boxes in [0, 1].
// Disjoint boxes return 0. A zero-area union (both boxes degenerate)
// also returns 0 rather than propagating NaN downstream.
func IOU(a, b Box) float64 {
	x1 := math.Max(a.X1, b.X1)
	y1 := math.Max(a.Y1, b.Y1)
	x2 := math.Min(a.X2, b.X2)
	y2 := math.Min(a.Y2, b.Y2)

	if x1 >= x2 || y1 >= y2 {
		return 0
	}
	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection

	iou := intersection / union
	if math.IsNaN(iou) {
		return 0
	}
	return iou
}
