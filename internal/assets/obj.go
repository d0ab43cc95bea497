package assets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"rigidsim/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNotFound  = errors.New("asset not found")
	ErrMalformed = errors.New("malformed asset")
)

// OBJ is a parsed Wavefront object file.
type OBJ struct {
	Mesh         *physics.Mesh
	MaterialLibs []string
	Material     string // last material selected with usemtl
}

// objRef is one corner of an f statement, 0-based, -1 when absent.
type objRef struct {
	v, vt, vn int
}

// ParseOBJ reads a Wavefront OBJ stream. Polygons are fan triangulated.
// When every face corner uses the normal with the same index as its vertex,
// normals and texture coordinates are attached to the vertices.
func ParseOBJ(r io.Reader, name string) (*OBJ, error) {
	var (
		positions []mgl64.Vec3
		normals   []mgl64.Vec3
		uvs       []mgl64.Vec3
		faces     [][3]objRef
		out       = &OBJ{}
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseVec(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseVec(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseVec(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
			}
			uvs = append(uvs, uv)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: %s line %d: face needs 3 vertices", ErrMalformed, name, lineNo)
			}
			refs := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseFaceRef(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
				}
				refs = append(refs, ref)
			}
			for i := 1; i+1 < len(refs); i++ {
				faces = append(faces, [3]objRef{refs[0], refs[i], refs[i+1]})
			}
		case "mtllib":
			out.MaterialLibs = append(out.MaterialLibs, fields[1:]...)
		case "usemtl":
			if len(fields) > 1 {
				out.Material = fields[1]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	mesh := &physics.Mesh{Name: name, Vertices: make([]physics.Vertex, len(positions))}
	for i, p := range positions {
		mesh.Vertices[i].Position = p
	}

	inOrder := len(normals) >= len(positions)
	for _, f := range faces {
		mesh.Faces = append(mesh.Faces, physics.Face{f[0].v, f[1].v, f[2].v})
		for _, ref := range f {
			if ref.vn >= 0 && ref.vn != ref.v {
				inOrder = false
			}
		}
	}
	if inOrder {
		for i := range mesh.Vertices {
			mesh.Vertices[i].Normal = normals[i]
		}
	}
	// Texture coordinates follow whatever face corner references them last
	for _, f := range faces {
		for _, ref := range f {
			if ref.vt >= 0 {
				mesh.Vertices[ref.v].UV = uvs[ref.vt]
			}
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out.Mesh = mesh
	return out, nil
}

func parseVec(fields []string, n int) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	if len(fields) < n {
		return v, fmt.Errorf("want %d components, got %d", n, len(fields))
	}
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v, fmt.Errorf("non-finite component %q", fields[i])
		}
		v[i] = f
	}
	return v, nil
}

// parseFaceRef handles v, v/vt, v//vn and v/vt/vn with 1-based or negative
// indices.
func parseFaceRef(tok string, nv, nvt, nvn int) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return ref, fmt.Errorf("bad face vertex %q", tok)
	}
	counts := [3]int{nv, nvt, nvn}
	out := [3]*int{&ref.v, &ref.vt, &ref.vn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return ref, fmt.Errorf("bad face vertex %q", tok)
			}
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil {
			return ref, fmt.Errorf("bad face vertex %q: %w", tok, err)
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx += counts[i]
		default:
			return ref, fmt.Errorf("zero index in %q", tok)
		}
		if idx < 0 || idx >= counts[i] {
			return ref, fmt.Errorf("index out of range in %q", tok)
		}
		*out[i] = idx
	}
	return ref, nil
}
