package model

import "math"

// Default node sizes used when a node carries no explicit size.
const (
	DefaultNodeWidth  = 120
	DefaultNodeHeight = 40
	DefaultGroupSize  = 80
)

// GridSize is the snap granularity for boards with SnapToGrid set.
const GridSize = 10

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Intersects reports whether the two rectangles overlap. Rectangles that only
// share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X && r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// ClampPoint returns the top-left position closest to (x, y) at which a w×h
// rectangle fits inside r. Rectangles larger than r are pinned to r's origin.
func (r Rect) ClampPoint(x, y, w, h float64) (float64, float64) {
	return clampAxis(x, w, r.X, r.W), clampAxis(y, h, r.Y, r.H)
}

func clampAxis(v, size, lo, span float64) float64 {
	hi := lo + span - size
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Snap rounds v to the nearest grid line.
func Snap(v float64) float64 {
	return math.Round(v/GridSize) * GridSize
}
