package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// ComputeAABB bounds the body's world-space collision vertices.
func ComputeAABB(b *RigidBody) AABB {
	return BoundsOf(b.ActualCollisionVertices())
}

// BoundsOf returns the smallest box containing every point. An empty input
// yields an inverted box that contains nothing.
func BoundsOf(points []mgl64.Vec3) AABB {
	inf := math.Inf(1)
	box := AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
	for _, p := range points {
		for k := 0; k < 3; k++ {
			if p[k] < box.Min[k] {
				box.Min[k] = p[k]
			}
			if p[k] > box.Max[k] {
				box.Max[k] = p[k]
			}
		}
	}
	return box
}

// Corners returns the eight corner points of the box.
func (a AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{a.Min[0], a.Min[1], a.Min[2]},
		{a.Max[0], a.Min[1], a.Min[2]},
		{a.Min[0], a.Max[1], a.Min[2]},
		{a.Max[0], a.Max[1], a.Min[2]},
		{a.Min[0], a.Min[1], a.Max[2]},
		{a.Max[0], a.Min[1], a.Max[2]},
		{a.Min[0], a.Max[1], a.Max[2]},
		{a.Max[0], a.Max[1], a.Max[2]},
	}
}

// ContainsPoint is inclusive on every face.
func (a AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1] &&
		p[2] >= a.Min[2] && p[2] <= a.Max[2]
}

// ContainsCornerOf reports whether any corner of other lies inside a.
func (a AABB) ContainsCornerOf(other AABB) bool {
	for _, c := range other.Corners() {
		if a.ContainsPoint(c) {
			return true
		}
	}
	return false
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Overlaps uses corner containment in both directions. Boxes that cross
// without either holding a corner of the other (a plus shape) are reported
// as separate.
func Overlaps(a, b AABB) bool {
	return b.ContainsCornerOf(a) || a.ContainsCornerOf(b)
}
