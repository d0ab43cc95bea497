package assets

import (
	"rigidsim/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
)

// Cube builds an axis-aligned cube of half extent half with outward faces.
func Cube(name string, half float64) *physics.Mesh {
	h := half
	corners := []mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	m := &physics.Mesh{Name: name}
	for _, c := range corners {
		m.Vertices = append(m.Vertices, physics.Vertex{
			Position: c,
			Normal:   c.Normalize(),
			UV:       mgl64.Vec3{(c[0]/h + 1) / 2, (c[1]/h + 1) / 2, 0},
		})
	}
	m.Faces = []physics.Face{
		{4, 5, 6}, {4, 6, 7},
		{0, 2, 1}, {0, 3, 2},
		{3, 7, 6}, {3, 6, 2},
		{0, 1, 5}, {0, 5, 4},
		{1, 2, 6}, {1, 6, 5},
		{0, 4, 7}, {0, 7, 3},
	}
	return m
}

// Floor builds a slab whose top face is a unit grid at y=0 spanning
// [-half, half] on X and Z, with a flat bottom at -depth. The grid keeps
// floor vertices close to anything resting on it.
func Floor(name string, half int, depth float64) *physics.Mesh {
	if half < 1 {
		half = 1
	}
	m := &physics.Mesh{Name: name}
	n := 2*half + 1
	for iz := 0; iz < n; iz++ {
		for ix := 0; ix < n; ix++ {
			m.Vertices = append(m.Vertices, physics.Vertex{
				Position: mgl64.Vec3{float64(ix - half), 0, float64(iz - half)},
				Normal:   mgl64.Vec3{0, 1, 0},
				UV:       mgl64.Vec3{float64(ix) / float64(n-1), float64(iz) / float64(n-1), 0},
			})
		}
	}
	at := func(ix, iz int) int { return iz*n + ix }
	for iz := 0; iz < n-1; iz++ {
		for ix := 0; ix < n-1; ix++ {
			a, b, c, d := at(ix, iz), at(ix+1, iz), at(ix+1, iz+1), at(ix, iz+1)
			m.Faces = append(m.Faces, physics.Face{a, d, c}, physics.Face{a, c, b})
		}
	}

	s := float64(half)
	base := len(m.Vertices)
	for _, p := range []mgl64.Vec3{{-s, -depth, -s}, {s, -depth, -s}, {s, -depth, s}, {-s, -depth, s}} {
		m.Vertices = append(m.Vertices, physics.Vertex{Position: p, Normal: mgl64.Vec3{0, -1, 0}})
	}
	m.Faces = append(m.Faces, physics.Face{base, base + 1, base + 2}, physics.Face{base, base + 2, base + 3})
	return m
}
