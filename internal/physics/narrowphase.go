package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is the result of a narrow-phase test. Face indexes the struck
// triangle of the second body's collision mesh.
type Contact struct {
	Hit          bool
	TimeOfImpact float64 // milliseconds into the step
	Face         int
}

type segment struct {
	from, to mgl64.Vec3
}

// Collide sweeps A's collision vertices from their previous to their current
// world positions and tests them against B's collision triangles. Only
// vertices near boxB and faces near boxA take part. The first face in mesh
// order that is hit wins.
func Collide(a, b *RigidBody, stepMs float64, boxA, boxB AABB) Contact {
	prev := a.PrevCollisionVertices()
	curr := a.ActualCollisionVertices()

	var sweeps []segment
	for i := range curr {
		if boxB.ContainsPoint(prev[i]) || boxB.ContainsPoint(curr[i]) {
			sweeps = append(sweeps, segment{from: prev[i], to: curr[i]})
		}
	}
	if len(sweeps) == 0 {
		return Contact{Face: -1}
	}

	verts := b.ActualCollisionVertices()
	for fi, f := range b.CollisionMesh().Faces {
		v0, v1, v2 := verts[f[0]], verts[f[1]], verts[f[2]]
		if !boxA.ContainsPoint(v0) && !boxA.ContainsPoint(v1) && !boxA.ContainsPoint(v2) {
			continue
		}
		for _, s := range sweeps {
			if frac, ok := IntersectSegmentTriangle(s.from, s.to, v0, v1, v2); ok {
				return Contact{Hit: true, TimeOfImpact: frac * stepMs, Face: fi}
			}
		}
	}
	return Contact{Face: -1}
}

// IntersectSegmentTriangle tests the segment p->q against triangle abc and
// returns the fraction along the segment where it enters. Only segments
// travelling against the triangle's winding normal can hit. Degenerate
// segments and triangles never hit.
func IntersectSegmentTriangle(p, q, a, b, c mgl64.Vec3) (float64, bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	n := ab.Cross(ac)
	qp := p.Sub(q)

	d := qp.Dot(n)
	if d <= 0 {
		return 0, false
	}

	ap := p.Sub(a)
	t := ap.Dot(n)
	if t < 0 || t > d {
		return 0, false
	}

	e := qp.Cross(ap)
	v := ac.Dot(e)
	if v < 0 || v > d {
		return 0, false
	}
	w := -ab.Dot(e)
	if w < 0 || v+w > d {
		return 0, false
	}
	return t / d, true
}
