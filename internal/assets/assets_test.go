package assets

import (
	"errors"
	"image/color"
	"strings"
	"testing"
	"testing/fstest"

	"rigidsim/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
)

const quadOBJ = `# a unit quad
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
vn 0 1 0
vn 0 1 0
vn 0 1 0
g ignored
usemtl red
f 1/1/1 4/4/4 3/3/3 2/2/2
`

const quadMTL = `newmtl red
Ka 0.1 0 0
Kd 1 0 0
Ks 0.5 0.5 0.5
d 0.5
map_Kd textures/red.png

newmtl blue
Kd 0 0 1
Tr 0.25
`

func TestParseOBJ(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(quadOBJ), "quad.obj")
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(obj.Mesh.Vertices) != 4 {
		t.Fatalf("Expected 4 vertices, got %d", len(obj.Mesh.Vertices))
	}
	want := []physics.Face{{0, 3, 2}, {0, 2, 1}}
	if len(obj.Mesh.Faces) != len(want) {
		t.Fatalf("Expected quad to become %d triangles, got %d", len(want), len(obj.Mesh.Faces))
	}
	for i := range want {
		if obj.Mesh.Faces[i] != want[i] {
			t.Errorf("Face %d: expected %v, got %v", i, want[i], obj.Mesh.Faces[i])
		}
	}
	if n := obj.Mesh.Vertices[2].Normal; n != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("Expected normals in vertex order, got %v", n)
	}
	if uv := obj.Mesh.Vertices[2].UV; uv != (mgl64.Vec3{1, 1, 0}) {
		t.Errorf("Expected UV (1,1), got %v", uv)
	}
	if obj.Material != "red" || len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "quad.mtl" {
		t.Errorf("Unexpected material refs %q %v", obj.Material, obj.MaterialLibs)
	}
}

func TestParseOBJFaceForms(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf -3//1 -2//1 -1//1\nf 1 2 3\n"
	obj, err := ParseOBJ(strings.NewReader(src), "tri.obj")
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	for _, f := range obj.Mesh.Faces {
		if f != (physics.Face{0, 1, 2}) {
			t.Errorf("Expected face (0,1,2), got %v", f)
		}
	}
	// Normals are shared rather than per vertex so they are not attached
	if n := obj.Mesh.Vertices[1].Normal; n != (mgl64.Vec3{}) {
		t.Errorf("Expected no per-vertex normal, got %v", n)
	}
}

func TestParseOBJRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad number", "v 0 x 0\n"},
		{"nan vertex", "v 0 NaN 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"},
		{"infinite vertex", "v Inf 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"},
		{"nan normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 nan 1\nf 1//1 2//1 3//1\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"no faces", "v 0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src), tt.name)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseMTL(t *testing.T) {
	mats, err := ParseMTL(strings.NewReader(quadMTL), "quad.mtl")
	if err != nil {
		t.Fatalf("ParseMTL: %v", err)
	}
	red, ok := mats["red"]
	if !ok {
		t.Fatal("Expected material red")
	}
	if red.Diffuse != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("Expected red diffuse, got %v", red.Diffuse)
	}
	if red.Opacity != 0.5 || red.Texture != "textures/red.png" {
		t.Errorf("Unexpected opacity %v or texture %q", red.Opacity, red.Texture)
	}
	if blue := mats["blue"]; blue == nil || blue.Opacity != 0.75 {
		t.Errorf("Expected blue with opacity 0.75, got %+v", blue)
	}
}

func TestLoaderCachesAndResolvesMaterials(t *testing.T) {
	fsys := fstest.MapFS{
		"objects/quad.obj": {Data: []byte(quadOBJ)},
		"objects/quad.mtl": {Data: []byte(quadMTL)},
	}
	l := NewLoader(fsys)

	a, err := l.Load("objects/quad.obj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Material.Name != "red" {
		t.Errorf("Expected material red, got %q", a.Material.Name)
	}
	b, _ := l.Load("objects/quad.obj")
	if a != b {
		t.Error("Expected the second load to hit the cache")
	}

	l.Unload()
	c, _ := l.Load("objects/quad.obj")
	if c == a {
		t.Error("Expected Unload to clear the cache")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(fstest.MapFS{})
	if _, err := l.Load("nope.obj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBuiltinMeshes(t *testing.T) {
	l := NewLoader(fstest.MapFS{})

	cube, err := l.Mesh("builtin:cube:2")
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if err := cube.Validate(); err != nil {
		t.Errorf("Cube is invalid: %v", err)
	}
	if cube.Vertices[6].Position != (mgl64.Vec3{2, 2, 2}) {
		t.Errorf("Expected corner (2,2,2), got %v", cube.Vertices[6].Position)
	}

	floor, err := l.Mesh("builtin:floor:3")
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if len(floor.Vertices) != 7*7+4 || len(floor.Faces) != 6*6*2+2 {
		t.Errorf("Unexpected floor size: %d vertices, %d faces", len(floor.Vertices), len(floor.Faces))
	}

	if _, err := l.Mesh("builtin:sphere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown builtin, got %v", err)
	}
	if _, err := l.Mesh("builtin:cube:-1"); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for a negative size, got %v", err)
	}
}
