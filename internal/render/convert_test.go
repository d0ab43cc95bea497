package render

import (
	"testing"

	"rigidsim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

func TestPoseMatrixMatchesPhysics(t *testing.T) {
	pos := mgl64.Vec3{1, -2, 3}
	rot := mgl64.Vec3{30, 45, 60}
	tr := physics.NewTransform(pos, rot)

	m := PoseMatrix(pos, rot)
	for _, p := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0.5, -1, 2}} {
		want := tr.Apply(p)
		got := FromVec3(rl.Vector3Transform(Vec3(p), m))
		if !got.ApproxEqualThreshold(want, 1e-4) {
			t.Errorf("Point %v: expected %v, got %v", p, want, got)
		}
	}
}

func TestFrustumContainsBox(t *testing.T) {
	// Looking down -Z from the origin
	view := Matrix(mgl64.LookAtV(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0}))
	proj := Matrix(mgl64.Perspective(mgl64.DegToRad(60), 1, 0.1, 100))
	f := frustumFromMatrix(rl.MatrixMultiply(view, proj))

	tests := []struct {
		name     string
		min, max rl.Vector3
		want     bool
	}{
		{"ahead", rl.Vector3{X: -1, Y: -1, Z: -11}, rl.Vector3{X: 1, Y: 1, Z: -9}, true},
		{"behind", rl.Vector3{X: -1, Y: -1, Z: 9}, rl.Vector3{X: 1, Y: 1, Z: 11}, false},
		{"far left", rl.Vector3{X: -60, Y: -1, Z: -11}, rl.Vector3{X: -50, Y: 1, Z: -9}, false},
		{"straddling near", rl.Vector3{X: -1, Y: -1, Z: -1}, rl.Vector3{X: 1, Y: 1, Z: 1}, true},
		{"beyond far", rl.Vector3{X: -1, Y: -1, Z: -300}, rl.Vector3{X: 1, Y: 1, Z: -200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsBox(tt.min, tt.max); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if !f.ContainsPoint(rl.Vector3{Z: -5}) {
		t.Error("Expected a point straight ahead to be inside")
	}
	if f.ContainsPoint(rl.Vector3{Z: 5}) {
		t.Error("Expected a point behind to be outside")
	}
}
