package viewer

import (
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"
	"testing/fstest"

	"rigidsim/internal/assets"
	"rigidsim/internal/physics"
	"rigidsim/internal/scenario"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	loader := assets.NewLoader(fstest.MapFS{})
	reg := physics.NewMeshRegistry()
	bodies, err := scenario.Build(scenario.Default(), loader, reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := physics.NewWorld(scenario.Default().Config(), bodies)
	w.Logger = log.New(io.Discard, "", 0)
	w.SetConfigMode(true)

	v := New(w, loader, reg, DefaultPrefs())
	v.Logger = log.New(io.Discard, "", 0)
	return v
}

func bodyState(t *testing.T, v *Viewer, name string) physics.BodyState {
	t.Helper()
	b, ok := v.World.Snapshot().Body(name)
	if !ok {
		t.Fatalf("Expected body %q in the snapshot", name)
	}
	return b
}

func TestNudgeAndUndo(t *testing.T) {
	v := newTestViewer(t)
	if v.Nudge(mgl64.Vec3{1, 0, 0}) {
		t.Fatal("Expected nudge without a selection to do nothing")
	}

	v.Select("cube")
	start := bodyState(t, v, "cube").Position
	if !v.Nudge(mgl64.Vec3{1, 0, 0}) {
		t.Fatal("Expected nudge to be queued")
	}
	v.World.StepFor(16)

	moved := bodyState(t, v, "cube").Position
	if !moved.ApproxEqual(start.Add(mgl64.Vec3{1, 0, 0})) {
		t.Errorf("Expected %v after nudge, got %v", start.Add(mgl64.Vec3{1, 0, 0}), moved)
	}

	if !v.Undo() {
		t.Fatal("Expected undo to succeed")
	}
	v.World.StepFor(16)
	if got := bodyState(t, v, "cube").Position; !got.ApproxEqual(start) {
		t.Errorf("Expected undo to restore %v, got %v", start, got)
	}
	if v.Undo() {
		t.Error("Expected an empty undo stack")
	}
}

func TestTurnWrapsThroughEdit(t *testing.T) {
	v := newTestViewer(t)
	v.Select("cube")
	v.Turn(mgl64.Vec3{0, 350, 0})
	v.World.StepFor(16)

	// Starts at 15 degrees, 365 wraps to 5
	if got := bodyState(t, v, "cube").Rotation.Y(); got != 5 {
		t.Errorf("Expected rotation 5, got %v", got)
	}
}

func TestRemoveAndRestore(t *testing.T) {
	v := newTestViewer(t)
	v.Select("cube")
	if !v.RemoveSelected() {
		t.Fatal("Expected remove to be queued")
	}
	if v.Selected() != "" {
		t.Errorf("Expected the selection to clear, got %q", v.Selected())
	}
	v.World.StepFor(16)
	if _, ok := v.World.Snapshot().Body("cube"); ok {
		t.Fatal("Expected cube to be removed")
	}

	v.Undo()
	v.World.StepFor(16)
	b := bodyState(t, v, "cube")
	if !b.CanMove || b.Mesh != "builtin:cube:0.5" {
		t.Errorf("Unexpected restored body %+v", b)
	}
	if v.Selected() != "cube" {
		t.Errorf("Expected restored body to be selected, got %q", v.Selected())
	}
}

func TestAddCube(t *testing.T) {
	v := newTestViewer(t)
	if err := v.AddCube(mgl64.Vec3{3, 5, 3}); err != nil {
		t.Fatalf("AddCube: %v", err)
	}
	v.World.StepFor(16)

	b := bodyState(t, v, "cube_1")
	if b.Position != (mgl64.Vec3{3, 5, 3}) {
		t.Errorf("Expected cube at (3,5,3), got %v", b.Position)
	}
	if v.Registry.Refs("builtin:cube:0.5") != 2 {
		t.Errorf("Expected the cube mesh to be shared, got %d refs", v.Registry.Refs("builtin:cube:0.5"))
	}

	v.Undo()
	v.World.StepFor(16)
	if _, ok := v.World.Snapshot().Body("cube_1"); ok {
		t.Error("Expected undo to remove the added cube")
	}
}

func TestSetVelocityAndUndo(t *testing.T) {
	v := newTestViewer(t)
	v.Select("cube")

	v.SetVelocity(mgl64.Vec3{2, 0, 0})
	v.World.StepFor(16)
	if got := bodyState(t, v, "cube").Velocity; got != (mgl64.Vec3{2, 0, 0}) {
		t.Errorf("Expected velocity (2,0,0), got %v", got)
	}

	v.Undo()
	v.World.StepFor(16)
	if got := bodyState(t, v, "cube").Velocity; got != (mgl64.Vec3{}) {
		t.Errorf("Expected velocity restored to zero, got %v", got)
	}
}

func TestPickRay(t *testing.T) {
	v := newTestViewer(t)
	cube := bodyState(t, v, "cube")

	origin := cube.CenterOfMass.Add(mgl64.Vec3{0.05, 10, 0.05})
	if !v.PickRay(origin, mgl64.Vec3{0, -1, 0}) || v.Selected() != "cube" {
		t.Errorf("Expected to pick cube, got %q", v.Selected())
	}
	if v.PickRay(mgl64.Vec3{0, 50, 0}, mgl64.Vec3{0, 1, 0}) || v.Selected() != "" {
		t.Errorf("Expected a miss to clear the selection, got %q", v.Selected())
	}
}

func TestSaveScenario(t *testing.T) {
	v := newTestViewer(t)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := v.SaveScenario(path); err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}
	def, err := scenario.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(def.Objects) != 2 {
		t.Errorf("Expected 2 objects, got %d", len(def.Objects))
	}
}

func TestUndoStackIsBounded(t *testing.T) {
	var s UndoStack
	for i := 0; i < maxUndoStack+10; i++ {
		s.Push(UndoState{Position: mgl64.Vec3{float64(i), 0, 0}})
	}
	if s.Len() != maxUndoStack {
		t.Fatalf("Expected %d entries, got %d", maxUndoStack, s.Len())
	}
	top, _ := s.Pop()
	if top.Position.X() != float64(maxUndoStack+9) {
		t.Errorf("Expected the newest entry on top, got %v", top.Position.X())
	}
}

func TestPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "viewer.json")

	p, err := LoadPrefs(path)
	if err != nil {
		t.Fatalf("LoadPrefs on a missing file: %v", err)
	}
	if p != DefaultPrefs() {
		t.Errorf("Expected defaults, got %+v", p)
	}

	p.CameraYaw = 42
	p.ShowBounds = true
	p.NudgeStep = 0
	if err := SavePrefs(path, p); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}
	got, err := LoadPrefs(path)
	if err != nil {
		t.Fatalf("LoadPrefs: %v", err)
	}
	if got.CameraYaw != 42 || !got.ShowBounds {
		t.Errorf("Expected saved values back, got %+v", got)
	}
	if got.NudgeStep != DefaultPrefs().NudgeStep {
		t.Errorf("Expected a zero nudge step to fall back to %v, got %v", DefaultPrefs().NudgeStep, got.NudgeStep)
	}
}

func TestOrbitCamera(t *testing.T) {
	c := NewOrbitCamera()
	c.Target = mgl64.Vec3{}
	c.Yaw, c.Pitch, c.Distance = 0, 0, 10

	if eye := c.Eye(); !eye.ApproxEqual(mgl64.Vec3{10, 0, 0}) {
		t.Errorf("Expected eye at (10,0,0), got %v", eye)
	}
	c.Orbit(0, 200)
	if c.Pitch != 89 {
		t.Errorf("Expected pitch clamped to 89, got %v", c.Pitch)
	}
	c.Zoom(1)
	if math.Abs(c.Distance-9) > 1e-9 {
		t.Errorf("Expected distance 9 after one zoom step, got %v", c.Distance)
	}
}
