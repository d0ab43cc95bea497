package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRotationWrapsOnlyAbove360(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 45, 45},
		{"exactly 360", 360, 0},
		{"above 360", 370, 10},
		{"negative is kept", -30, -30},
		{"far negative is kept", -400, -400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform(mgl64.Vec3{}, mgl64.Vec3{tt.in, 0, 0})
			if got := tr.Rotation().X(); !approx(got, tt.want) {
				t.Errorf("Expected rotation %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMoveWrapsAngularMotion(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{}, mgl64.Vec3{0, 350, 0})
	tr.SetAngularVelocity(mgl64.Vec3{0, 1000, 0})
	tr.Move(16)
	if got := tr.Rotation().Y(); !approx(got, 6) {
		t.Errorf("Expected wrapped rotation 6, got %v", got)
	}
}

func TestIntegrateClampsAtTerminalVelocity(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{}, mgl64.Vec3{})
	tr.SetVelocity(mgl64.Vec3{0, -9.99, 0})
	tr.SetAcceleration(mgl64.Vec3{1, -9, 0})
	tr.Integrate(16)

	v := tr.Velocity()
	if v.Y() != TerminalVelocity {
		t.Errorf("Expected vertical velocity clamped to %v, got %v", TerminalVelocity, v.Y())
	}
	if !approx(v.X(), 0.016) {
		t.Errorf("Expected horizontal velocity 0.016, got %v", v.X())
	}

	// Once at terminal velocity vertical acceleration is ignored
	tr.SetAcceleration(mgl64.Vec3{0, 50, 0})
	tr.Integrate(16)
	if tr.Velocity().Y() != TerminalVelocity {
		t.Errorf("Expected vertical velocity to stay at %v, got %v", TerminalVelocity, tr.Velocity().Y())
	}
}

func TestMoveUndoAndFraction(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{})
	tr.SetVelocity(mgl64.Vec3{10, 0, 0})

	tr.Move(100)
	if !vecApprox(tr.Position(), mgl64.Vec3{2, 2, 3}) {
		t.Fatalf("Expected position (2,2,3), got %v", tr.Position())
	}
	if !vecApprox(tr.PrevPosition(), mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("Expected previous position (1,2,3), got %v", tr.PrevPosition())
	}

	tr.Undo()
	if !vecApprox(tr.Position(), mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Expected undo to restore (1,2,3), got %v", tr.Position())
	}

	prevVersion := tr.PrevVersion()
	tr.MoveFraction(50, 0.98)
	if !vecApprox(tr.Position(), mgl64.Vec3{1.49, 2, 3}) {
		t.Errorf("Expected position (1.49,2,3), got %v", tr.Position())
	}
	if tr.PrevVersion() != prevVersion {
		t.Error("MoveFraction should not replace the previous pose")
	}
}

func TestVersionBumpsOnPoseChange(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{}, mgl64.Vec3{})
	v := tr.Version()

	tr.SetVelocity(mgl64.Vec3{1, 0, 0})
	if tr.Version() != v {
		t.Error("Velocity changes should not bump the pose version")
	}

	tr.Translate(mgl64.Vec3{0, 1, 0})
	if tr.Version() == v {
		t.Error("Translate should bump the pose version")
	}
}

func TestRotationOrder(t *testing.T) {
	tests := []struct {
		name string
		rot  mgl64.Vec3
		in   mgl64.Vec3
		want mgl64.Vec3
	}{
		{"x only", mgl64.Vec3{90, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}},
		{"z only", mgl64.Vec3{0, 0, 90}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
		// Y is applied before X
		{"y then x", mgl64.Vec3{90, 90, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform(mgl64.Vec3{5, 0, 0}, tt.rot)
			got := tr.Apply(tt.in)
			want := tt.want.Add(mgl64.Vec3{5, 0, 0})
			if !vecApprox(got, want) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		})
	}
}
