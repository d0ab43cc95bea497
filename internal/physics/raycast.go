package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type RaycastHit struct {
	Body     int
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Raycast checks the ray against every body's collision triangles and
// returns the closest hit within maxDistance. Triangles are two-sided.
func (s *Snapshot) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	if direction.Len() == 0 {
		return RaycastHit{}, false
	}
	direction = direction.Normalize()
	closest := RaycastHit{Body: -1, Distance: maxDistance}
	hit := false

	for bi, body := range s.Bodies {
		// Skip bodies whose box the ray cannot reach
		if _, ok := rayBox(origin, direction, body.Bounds, closest.Distance); !ok {
			continue
		}
		verts := body.CollisionVertices
		for _, f := range body.CollisionFaces {
			a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
			dist, ok := rayTriangle(origin, direction, a, b, c)
			if !ok || dist > closest.Distance {
				continue
			}
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Len() > 0 {
				n = n.Normalize()
			}
			if n.Dot(direction) > 0 {
				n = n.Mul(-1)
			}
			closest = RaycastHit{
				Body:     bi,
				Point:    origin.Add(direction.Mul(dist)),
				Normal:   n,
				Distance: dist,
			}
			hit = true
		}
	}
	return closest, hit
}

// rayTriangle is Möller-Trumbore.
func rayTriangle(origin, dir, a, b, c mgl64.Vec3) (float64, bool) {
	const eps = 1e-9
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := inv * e2.Dot(q)
	if t < 0 {
		return 0, false
	}
	return t, true
}

// rayBox is the slab test, returning the entry distance.
func rayBox(origin, dir mgl64.Vec3, box AABB, maxDistance float64) (float64, bool) {
	tMin, tMax := 0.0, maxDistance
	for k := 0; k < 3; k++ {
		if math.Abs(dir[k]) < 1e-12 {
			if origin[k] < box.Min[k] || origin[k] > box.Max[k] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[k]
		t1 := (box.Min[k] - origin[k]) * inv
		t2 := (box.Max[k] - origin[k]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = max(tMin, t1)
		tMax = min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
