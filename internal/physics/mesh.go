package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidMesh is returned by Mesh.Validate for meshes the engine cannot use.
var ErrInvalidMesh = errors.New("invalid mesh")

// Vertex is a mesh vertex in local space. UV only uses X and Y.
type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	UV       mgl64.Vec3
}

// Face is a triangle given as 0-based indices into Mesh.Vertices.
type Face [3]int

// Mesh is a named triangle mesh. Render meshes are shared between bodies and
// must be treated as read-only once registered.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face
}

// Validate rejects meshes without vertices or faces and faces that point
// outside the vertex list.
func (m *Mesh) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	}
	if len(m.Vertices) == 0 {
		return fmt.Errorf("%w: %q has no vertices", ErrInvalidMesh, m.Name)
	}
	if len(m.Faces) == 0 {
		return fmt.Errorf("%w: %q has no faces", ErrInvalidMesh, m.Name)
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: %q face %d references vertex %d of %d",
					ErrInvalidMesh, m.Name, i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:     m.Name,
		Vertices: make([]Vertex, len(m.Vertices)),
		Faces:    make([]Face, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// Centroid is the mean of all vertex positions.
func (m *Mesh) Centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	if len(m.Vertices) == 0 {
		return sum
	}
	for _, v := range m.Vertices {
		sum = sum.Add(v.Position)
	}
	return sum.Mul(1 / float64(len(m.Vertices)))
}
