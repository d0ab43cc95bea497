package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// TerminalVelocity is the lowest vertical velocity gravity can push a body to.
const TerminalVelocity = -10.0

// msToSeconds converts the stepper's millisecond intervals into the seconds
// used by velocities and accelerations.
const msToSeconds = 0.001

// Transform holds a body's pose and its linear and angular motion state.
// Rotation is three Euler angles in degrees applied about X, then Y, then Z.
//
// Every pose mutation bumps Version so cached world-space data can be
// invalidated by comparing integers.
type Transform struct {
	position mgl64.Vec3
	rotation mgl64.Vec3

	velocity            mgl64.Vec3
	acceleration        mgl64.Vec3
	angularVelocity     mgl64.Vec3
	angularAcceleration mgl64.Vec3

	// Pose captured at the start of the current step's move
	prevPosition mgl64.Vec3
	prevRotation mgl64.Vec3

	version     uint64
	prevVersion uint64
}

// NewTransform creates a transform at the given pose. The previous pose
// starts equal to the current one.
func NewTransform(position, rotation mgl64.Vec3) Transform {
	t := Transform{
		position: position,
		rotation: wrapRotation(rotation),
		version:  1,
	}
	t.prevPosition = t.position
	t.prevRotation = t.rotation
	t.prevVersion = 1
	return t
}

func (t *Transform) Position() mgl64.Vec3            { return t.position }
func (t *Transform) Rotation() mgl64.Vec3            { return t.rotation }
func (t *Transform) PrevPosition() mgl64.Vec3        { return t.prevPosition }
func (t *Transform) PrevRotation() mgl64.Vec3        { return t.prevRotation }
func (t *Transform) Velocity() mgl64.Vec3            { return t.velocity }
func (t *Transform) Acceleration() mgl64.Vec3        { return t.acceleration }
func (t *Transform) AngularVelocity() mgl64.Vec3     { return t.angularVelocity }
func (t *Transform) AngularAcceleration() mgl64.Vec3 { return t.angularAcceleration }

// Version increases on every change to position or rotation.
func (t *Transform) Version() uint64 { return t.version }

// PrevVersion increases whenever the previous pose is replaced.
func (t *Transform) PrevVersion() uint64 { return t.prevVersion }

func (t *Transform) SetVelocity(v mgl64.Vec3)            { t.velocity = v }
func (t *Transform) SetAcceleration(a mgl64.Vec3)        { t.acceleration = a }
func (t *Transform) SetAngularVelocity(w mgl64.Vec3)     { t.angularVelocity = w }
func (t *Transform) SetAngularAcceleration(a mgl64.Vec3) { t.angularAcceleration = a }

// SetPosition teleports the body. The previous pose follows so the next swept
// test does not see a segment through everything in between.
func (t *Transform) SetPosition(p mgl64.Vec3) {
	t.position = p
	t.prevPosition = p
	t.prevRotation = t.rotation
	t.version++
	t.prevVersion++
}

// SetRotation teleports the body's orientation, see SetPosition.
func (t *Transform) SetRotation(r mgl64.Vec3) {
	t.rotation = wrapRotation(r)
	t.prevPosition = t.position
	t.prevRotation = t.rotation
	t.version++
	t.prevVersion++
}

// Translate nudges the position by delta.
func (t *Transform) Translate(delta mgl64.Vec3) {
	t.SetPosition(t.position.Add(delta))
}

// Rotate nudges the rotation by delta degrees.
func (t *Transform) Rotate(delta mgl64.Vec3) {
	t.SetRotation(t.rotation.Add(delta))
}

// Integrate applies acceleration to velocity over dtMs milliseconds.
// Vertical velocity only accumulates while above TerminalVelocity and is
// clamped to it.
func (t *Transform) Integrate(dtMs float64) {
	s := dtMs * msToSeconds
	t.velocity[0] += t.acceleration[0] * s
	if t.velocity[1] > TerminalVelocity {
		t.velocity[1] += t.acceleration[1] * s
		if t.velocity[1] < TerminalVelocity {
			t.velocity[1] = TerminalVelocity
		}
	}
	t.velocity[2] += t.acceleration[2] * s

	t.angularVelocity = t.angularVelocity.Add(t.angularAcceleration.Mul(s))
}

// Move records the current pose as previous and advances by dtMs.
func (t *Transform) Move(dtMs float64) {
	t.prevPosition = t.position
	t.prevRotation = t.rotation
	t.prevVersion++
	t.advance(dtMs * msToSeconds)
}

// MoveFraction advances by dtMs scaled by scale without touching the
// previous pose. Used to re-advance a body to its time of impact.
func (t *Transform) MoveFraction(dtMs, scale float64) {
	t.advance(dtMs * msToSeconds * scale)
}

// Undo restores the pose captured by the last Move.
func (t *Transform) Undo() {
	t.position = t.prevPosition
	t.rotation = t.prevRotation
	t.version++
}

func (t *Transform) advance(s float64) {
	t.position = t.position.Add(t.velocity.Mul(s))
	t.rotation = wrapRotation(t.rotation.Add(t.angularVelocity.Mul(s)))
	t.version++
}

// RotationMatrix returns Rx * (Ry * Rz) for the current rotation.
func (t *Transform) RotationMatrix() mgl64.Mat4 {
	return rotationMatrix(t.rotation)
}

// Matrix returns the local-to-world matrix T * R.
func (t *Transform) Matrix() mgl64.Mat4 {
	return poseMatrix(t.position, t.rotation)
}

// PrevMatrix returns the local-to-world matrix of the previous pose.
func (t *Transform) PrevMatrix() mgl64.Mat4 {
	return poseMatrix(t.prevPosition, t.prevRotation)
}

// Apply maps a local point into world space.
func (t *Transform) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return TransformPoint(t.Matrix(), v)
}

// TransformPoint applies a homogeneous matrix to a point.
func TransformPoint(m mgl64.Mat4, v mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

func rotationMatrix(r mgl64.Vec3) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(r[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(r[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(r[2]))
	return rx.Mul4(ry.Mul4(rz))
}

func poseMatrix(p, r mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(p[0], p[1], p[2]).Mul4(rotationMatrix(r))
}

// wrapAngle subtracts one full turn from angles at or above 360.
// Negative angles are left alone.
func wrapAngle(a float64) float64 {
	if a >= 360 {
		a -= 360
	}
	return a
}

func wrapRotation(r mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{wrapAngle(r[0]), wrapAngle(r[1]), wrapAngle(r[2])}
}
