// Package viewer is the interactive window: it renders published snapshots
// and turns user input into queued world edits. It never steps the world.
package viewer

import (
	"fmt"
	"log"
	"time"

	"rigidsim/internal/physics"
	"rigidsim/internal/render"
	"rigidsim/internal/scenario"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	msgDuration = 3 * time.Second
	cubeMesh    = "builtin:cube:0.5"
)

// Viewer holds the editing state of the window.
type Viewer struct {
	World    *physics.World
	Loader   scenario.MeshSource
	Registry *physics.MeshRegistry
	Renderer *render.Renderer
	Logger   *log.Logger

	PrefsPath string
	prefs     Prefs

	camera      *OrbitCamera
	undo        UndoStack
	selected    string
	cubeCounter int
	velocity    [3]float32 // velocity sliders

	msg     string
	msgTime time.Time
}

func New(world *physics.World, loader scenario.MeshSource, reg *physics.MeshRegistry, prefs Prefs) *Viewer {
	v := &Viewer{
		World:     world,
		Loader:    loader,
		Registry:  reg,
		Renderer:  render.NewRenderer(),
		Logger:    log.Default(),
		PrefsPath: DefaultPrefsPath,
		camera:    NewOrbitCamera(),
	}
	v.ApplyPrefs(prefs)
	return v
}

// ApplyPrefs applies loaded preferences to the viewer
func (v *Viewer) ApplyPrefs(p Prefs) {
	v.prefs = p
	v.camera.Target = mgl64.Vec3(p.CameraTarget)
	v.camera.Yaw = p.CameraYaw
	v.camera.Pitch = p.CameraPitch
	if p.CameraDistance > 0 {
		v.camera.Distance = p.CameraDistance
	}
	v.Renderer.ShowBounds = p.ShowBounds
	v.Renderer.ShowContacts = p.ShowContacts
	v.Renderer.ShowCollision = p.ShowCollision
}

// Prefs returns the current preferences, camera included.
func (v *Viewer) Prefs() Prefs {
	p := v.prefs
	p.CameraTarget = v.camera.Target
	p.CameraYaw = v.camera.Yaw
	p.CameraPitch = v.camera.Pitch
	p.CameraDistance = v.camera.Distance
	p.ShowBounds = v.Renderer.ShowBounds
	p.ShowContacts = v.Renderer.ShowContacts
	p.ShowCollision = v.Renderer.ShowCollision
	return p
}

// Selected returns the selected body name, or "" for none.
func (v *Viewer) Selected() string { return v.selected }

// Select picks a body by name; an empty name clears the selection.
func (v *Viewer) Select(name string) {
	v.selected = name
	if b, ok := v.selectedState(); ok {
		v.velocity = [3]float32{float32(b.Velocity[0]), float32(b.Velocity[1]), float32(b.Velocity[2])}
	}
}

// PickRay selects the body hit by a ray, or clears the selection.
func (v *Viewer) PickRay(origin, dir mgl64.Vec3) bool {
	snap := v.World.Snapshot()
	hit, ok := snap.Raycast(origin, dir, 1000)
	if !ok {
		v.Select("")
		return false
	}
	v.Select(snap.Bodies[hit.Body].Name)
	return true
}

// ToggleConfigMode pauses or resumes physics.
func (v *Viewer) ToggleConfigMode() {
	on := !v.World.ConfigMode()
	v.World.SetConfigMode(on)
	if on {
		v.setMsg("Config mode: physics paused")
	} else {
		v.setMsg("Running")
	}
}

// Nudge moves the selected body by delta.
func (v *Viewer) Nudge(delta mgl64.Vec3) bool {
	return v.editPose(physics.EditTranslate, delta)
}

// Turn rotates the selected body by delta degrees.
func (v *Viewer) Turn(delta mgl64.Vec3) bool {
	return v.editPose(physics.EditRotate, delta)
}

func (v *Viewer) editPose(kind physics.EditKind, delta mgl64.Vec3) bool {
	idx, b, ok := v.selectedBody()
	if !ok {
		return false
	}
	v.undo.Push(UndoState{Type: UndoPose, Body: b.Name, Position: b.Position, Rotation: b.Rotation})
	v.World.QueueEdit(physics.Edit{Body: idx, Kind: kind, Value: delta})
	return true
}

// SetVelocity replaces the selected body's velocity.
func (v *Viewer) SetVelocity(vel mgl64.Vec3) bool {
	idx, b, ok := v.selectedBody()
	if !ok {
		return false
	}
	v.undo.Push(UndoState{Type: UndoVelocity, Body: b.Name, Velocity: b.Velocity})
	v.World.QueueEdit(physics.Edit{Body: idx, Kind: physics.EditSetVelocity, Value: vel})
	v.setMsg("Velocity of %s set to (%.1f, %.1f, %.1f)", b.Name, vel[0], vel[1], vel[2])
	return true
}

// AddCube spawns a falling cube at pos and selects it.
func (v *Viewer) AddCube(pos mgl64.Vec3) error {
	name := v.nextCubeName()
	b, err := scenario.BuildObject(scenario.ObjectDef{
		Name:        name,
		Mesh:        cubeMesh,
		Position:    pos,
		CanMove:     true,
		Gravity:     true,
		InverseMass: physics.DefaultInverseMass,
	}, v.Loader, v.Registry)
	if err != nil {
		v.setMsg("Add failed: %v", err)
		return fmt.Errorf("add cube: %w", err)
	}
	v.World.AddBody(b)
	v.undo.Push(UndoState{Type: UndoAdd, Body: name})
	v.selected = name
	v.setMsg("Added %s", name)
	return nil
}

func (v *Viewer) nextCubeName() string {
	snap := v.World.Snapshot()
	for {
		v.cubeCounter++
		name := fmt.Sprintf("cube_%d", v.cubeCounter)
		if _, taken := snap.Body(name); !taken {
			return name
		}
	}
}

// RemoveSelected queues the selected body for removal.
func (v *Viewer) RemoveSelected() bool {
	idx, b, ok := v.selectedBody()
	if !ok {
		return false
	}
	v.undo.Push(UndoState{Type: UndoDelete, Body: b.Name, Object: scenario.ObjectFromState(b)})
	v.World.RemoveBody(idx)
	v.selected = ""
	v.setMsg("Removed %s", b.Name)
	return true
}

// Undo reverts the most recent edit.
func (v *Viewer) Undo() bool {
	state, ok := v.undo.Pop()
	if !ok {
		v.setMsg("Nothing to undo")
		return false
	}

	snap := v.World.Snapshot()
	idx := indexOf(snap, state.Body)

	switch state.Type {
	case UndoPose:
		if idx < 0 {
			return false
		}
		v.World.QueueEdit(physics.Edit{Body: idx, Kind: physics.EditSetPosition, Value: state.Position})
		v.World.QueueEdit(physics.Edit{Body: idx, Kind: physics.EditSetRotation, Value: state.Rotation})
		v.selected = state.Body

	case UndoVelocity:
		if idx < 0 {
			return false
		}
		v.World.QueueEdit(physics.Edit{Body: idx, Kind: physics.EditSetVelocity, Value: state.Velocity})
		v.selected = state.Body

	case UndoDelete:
		b, err := scenario.BuildObject(state.Object, v.Loader, v.Registry)
		if err != nil {
			v.setMsg("Restore failed: %v", err)
			return false
		}
		v.World.AddBody(b)
		v.selected = state.Body
		v.setMsg("Restored %s", state.Body)

	case UndoAdd:
		if idx < 0 {
			return false
		}
		v.World.RemoveBody(idx)
		if v.selected == state.Body {
			v.selected = ""
		}
	}
	return true
}

// SaveScenario writes the current world to path.
func (v *Viewer) SaveScenario(path string) error {
	def := scenario.FromSnapshot(v.World.Snapshot())
	if err := scenario.Save(path, def); err != nil {
		v.setMsg("Save failed: %v", err)
		return err
	}
	v.setMsg("Saved %d bodies to %s", len(def.Objects), path)
	return nil
}

func (v *Viewer) selectedState() (physics.BodyState, bool) {
	_, b, ok := v.selectedBody()
	return b, ok
}

func (v *Viewer) selectedBody() (int, physics.BodyState, bool) {
	if v.selected == "" {
		return -1, physics.BodyState{}, false
	}
	snap := v.World.Snapshot()
	idx := indexOf(snap, v.selected)
	if idx < 0 {
		return -1, physics.BodyState{}, false
	}
	return idx, snap.Bodies[idx], true
}

func indexOf(snap *physics.Snapshot, name string) int {
	for i, b := range snap.Bodies {
		if b.Name == name {
			return i
		}
	}
	return -1
}

func (v *Viewer) setMsg(format string, args ...any) {
	v.msg = fmt.Sprintf(format, args...)
	v.msgTime = time.Now()
	if v.Logger != nil {
		v.Logger.Printf("Viewer: %s", v.msg)
	}
}

// message returns the status line while it is fresh.
func (v *Viewer) message() string {
	if v.msg == "" || time.Since(v.msgTime) > msgDuration {
		return ""
	}
	return v.msg
}
