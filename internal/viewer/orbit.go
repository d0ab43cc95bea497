package viewer

import (
	"math"

	"rigidsim/internal/render"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// OrbitCamera circles a target point. Yaw and pitch are in degrees.
type OrbitCamera struct {
	Target   mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Distance float64

	LookSpeed float64
	PanSpeed  float64 // units per second
	ZoomSpeed float64 // fraction of distance per wheel step
}

func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Target:    mgl64.Vec3{0, 1, 0},
		Yaw:       -135,
		Pitch:     25,
		Distance:  14,
		LookSpeed: 0.25,
		PanSpeed:  8,
		ZoomSpeed: 0.1,
	}
}

// Update applies mouse and keyboard input: right drag orbits, the wheel
// zooms, WASD/QE move the target.
func (c *OrbitCamera) Update(dt float64, allowKeys bool) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		c.Orbit(float64(d.X)*c.LookSpeed, float64(d.Y)*c.LookSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.Zoom(float64(wheel))
	}
	if !allowKeys {
		return
	}

	forward, right := c.directions()
	var move mgl64.Vec3
	if rl.IsKeyDown(rl.KeyW) {
		move = move.Add(forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		move = move.Sub(forward)
	}
	if rl.IsKeyDown(rl.KeyD) {
		move = move.Add(right)
	}
	if rl.IsKeyDown(rl.KeyA) {
		move = move.Sub(right)
	}
	if rl.IsKeyDown(rl.KeyE) {
		move[1]++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		move[1]--
	}
	if l := move.Len(); l > 0 {
		c.Target = c.Target.Add(move.Mul(c.PanSpeed * dt / l))
	}
}

// Orbit turns the camera by dYaw and dPitch degrees. Pitch stays within
// (-89, 89).
func (c *OrbitCamera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = min(max(c.Pitch+dPitch, -89), 89)
}

// Zoom moves towards the target for positive steps.
func (c *OrbitCamera) Zoom(steps float64) {
	c.Distance = min(max(c.Distance*(1-steps*c.ZoomSpeed), 1), 500)
}

// Eye returns the camera position.
func (c *OrbitCamera) Eye() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	offset := mgl64.Vec3{
		math.Cos(yaw) * math.Cos(pitch),
		math.Sin(pitch),
		math.Sin(yaw) * math.Cos(pitch),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// directions returns the horizontal forward and right vectors.
func (c *OrbitCamera) directions() (forward, right mgl64.Vec3) {
	yaw := mgl64.DegToRad(c.Yaw)
	forward = mgl64.Vec3{-math.Cos(yaw), 0, -math.Sin(yaw)}
	right = forward.Cross(mgl64.Vec3{0, 1, 0})
	return forward, right
}

func (c *OrbitCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   render.Vec3(c.Eye()),
		Target:     render.Vec3(c.Target),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
