package physics

import (
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func vecApprox(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-6)
}

// cubeMesh is an axis-aligned cube centred on the origin with outward faces.
func cubeMesh(name string, half float64) *Mesh {
	h := half
	pos := []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	m := &Mesh{Name: name}
	for _, p := range pos {
		m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: p.Normalize()})
	}
	m.Faces = []Face{
		{4, 5, 6}, {4, 6, 7}, // +z
		{0, 2, 1}, {0, 3, 2}, // -z
		{3, 7, 6}, {3, 6, 2}, // +y
		{0, 1, 5}, {0, 5, 4}, // -y
		{1, 2, 6}, {1, 6, 5}, // +x
		{0, 4, 7}, {0, 7, 3}, // -x
	}
	return m
}

// floorMesh is a slab whose top at y=0 is a unit grid facing up, so small
// bodies always find floor vertices inside their box.
func floorMesh(name string, half int, depth float64) *Mesh {
	m := &Mesh{Name: name}
	n := 2*half + 1
	for iz := 0; iz < n; iz++ {
		for ix := 0; ix < n; ix++ {
			m.Vertices = append(m.Vertices, Vertex{
				Position: mgl64.Vec3{float64(ix - half), 0, float64(iz - half)},
				Normal:   mgl64.Vec3{0, 1, 0},
			})
		}
	}
	at := func(ix, iz int) int { return iz*n + ix }
	for iz := 0; iz < n-1; iz++ {
		for ix := 0; ix < n-1; ix++ {
			a, b, c, d := at(ix, iz), at(ix+1, iz), at(ix+1, iz+1), at(ix, iz+1)
			m.Faces = append(m.Faces, Face{a, d, c}, Face{a, c, b})
		}
	}
	base := len(m.Vertices)
	s := float64(half)
	for _, p := range []mgl64.Vec3{{-s, -depth, -s}, {s, -depth, -s}, {s, -depth, s}, {-s, -depth, s}} {
		m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: mgl64.Vec3{0, -1, 0}})
	}
	m.Faces = append(m.Faces, Face{base, base + 1, base + 2}, Face{base, base + 2, base + 3})
	return m
}

func newBody(t *testing.T, def BodyDef) *RigidBody {
	t.Helper()
	b, err := NewRigidBody(def, nil)
	if err != nil {
		t.Fatalf("NewRigidBody(%q): %v", def.Name, err)
	}
	return b
}

func quietWorld(cfg Config, bodies ...*RigidBody) *World {
	w := NewWorld(cfg, bodies)
	w.Logger = log.New(io.Discard, "", 0)
	return w
}

// fakeClock advances by step on every call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}
