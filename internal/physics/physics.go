// Package physics provides the broad-phase collision step: distance helpers
// for a wrapping world, a spatial hash grid, and the contact listener hook
// through which the game reacts to collisions.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle checks if a point is within radius of a target position.
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) <= radius*radius
}

// CirclesOverlap checks if two circles overlap. Touching circles do not.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}

// Torus is a world whose edges wrap. A zero dimension does not wrap.
type Torus struct {
	Width, Height float64
}

// Delta returns the shortest displacement from (x1, y1) to (x2, y2).
func (t Torus) Delta(x1, y1, x2, y2 float64) (dx, dy float64) {
	return wrapDelta(x2-x1, t.Width), wrapDelta(y2-y1, t.Height)
}

func wrapDelta(d, size float64) float64 {
	if size <= 0 {
		return d
	}
	d = math.Mod(d, size)
	switch {
	case d > size/2:
		d -= size
	case d < -size/2:
		d += size
	}
	return d
}

// DistanceSquared is the squared shortest distance across the wrap.
func (t Torus) DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx, dy := t.Delta(x1, y1, x2, y2)
	return dx*dx + dy*dy
}

// PointInCircle is PointInCircle measured across the wrap.
func (t Torus) PointInCircle(px, py, cx, cy, radius float64) bool {
	return t.DistanceSquared(px, py, cx, cy) <= radius*radius
}

// CirclesOverlap is CirclesOverlap measured across the wrap.
func (t Torus) CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	minDist := r1 + r2
	return t.DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}
