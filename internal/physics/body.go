package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultInverseMass is used when a body is created without an inverse mass.
const DefaultInverseMass = 900.0

// BodyDef describes a body at spawn time.
type BodyDef struct {
	Name            string
	RenderMesh      *Mesh // shared through the registry, falls back to CollisionMesh
	CollisionMesh   *Mesh
	Position        mgl64.Vec3
	Rotation        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	InverseMass     float64
	CanMove         bool
	Gravity         bool
}

// RigidBody couples a transform with a shared render mesh and a private
// low-resolution collision mesh. World-space vertices are cached per pose
// version.
type RigidBody struct {
	name      string
	transform Transform

	render    *Mesh
	collision *Mesh
	registry  *MeshRegistry

	inverseMass float64
	canMove     bool
	gravity     bool

	renderWorld         []mgl64.Vec3
	renderVersion       uint64
	collisionWorld      []mgl64.Vec3
	collisionVersion    uint64
	prevCollisionWorld  []mgl64.Vec3
	prevCollisionAt     uint64
	renderCentroidLocal mgl64.Vec3
}

// NewRigidBody builds a body from def. The render mesh is acquired from reg
// when reg is non-nil; the collision mesh is copied so the body owns it.
func NewRigidBody(def BodyDef, reg *MeshRegistry) (*RigidBody, error) {
	if err := def.CollisionMesh.Validate(); err != nil {
		return nil, fmt.Errorf("body %q collision mesh: %w", def.Name, err)
	}
	render := def.RenderMesh
	if render == nil {
		render = def.CollisionMesh
	} else if err := render.Validate(); err != nil {
		return nil, fmt.Errorf("body %q render mesh: %w", def.Name, err)
	}
	if reg != nil {
		render = reg.Acquire(render)
	}

	b := &RigidBody{
		name:        def.Name,
		transform:   NewTransform(def.Position, def.Rotation),
		render:      render,
		collision:   def.CollisionMesh.Clone(),
		registry:    reg,
		inverseMass: DefaultInverseMass,
		canMove:     def.CanMove,
		gravity:     def.Gravity,
	}
	b.SetInverseMass(def.InverseMass)
	b.transform.SetVelocity(def.Velocity)
	b.transform.SetAngularVelocity(def.AngularVelocity)
	b.renderCentroidLocal = render.Centroid()
	return b, nil
}

// Release returns the render mesh to the registry.
func (b *RigidBody) Release() {
	if b.registry != nil {
		b.registry.Release(b.render.Name)
		b.registry = nil
	}
}

func (b *RigidBody) Name() string            { return b.name }
func (b *RigidBody) Transform() *Transform   { return &b.transform }
func (b *RigidBody) RenderMesh() *Mesh       { return b.render }
func (b *RigidBody) CollisionMesh() *Mesh    { return b.collision }
func (b *RigidBody) CanMove() bool           { return b.canMove }
func (b *RigidBody) AffectedByGravity() bool { return b.gravity }
func (b *RigidBody) InverseMass() float64    { return b.inverseMass }
func (b *RigidBody) Position() mgl64.Vec3    { return b.transform.Position() }
func (b *RigidBody) Rotation() mgl64.Vec3    { return b.transform.Rotation() }

func (b *RigidBody) SetCanMove(v bool)           { b.canMove = v }
func (b *RigidBody) SetAffectedByGravity(v bool) { b.gravity = v }

// SetInverseMass updates the inverse mass. Zero is ignored so the impulse
// denominator can never vanish.
func (b *RigidBody) SetInverseMass(x float64) {
	if x == 0 {
		return
	}
	b.inverseMass = x
}

// StoredVelocity returns the velocity as stored, ignoring CanMove.
func (b *RigidBody) StoredVelocity() mgl64.Vec3 { return b.transform.Velocity() }

// Velocity returns the body's linear velocity, or zero for static bodies.
func (b *RigidBody) Velocity() mgl64.Vec3 {
	if !b.canMove {
		return mgl64.Vec3{}
	}
	return b.transform.Velocity()
}

func (b *RigidBody) SetVelocity(v mgl64.Vec3) { b.transform.SetVelocity(v) }

// ApplyGravity sets the linear acceleration from the global gravity.
func (b *RigidBody) ApplyGravity(g float64) {
	if b.gravity {
		b.transform.SetAcceleration(mgl64.Vec3{0, g, 0})
		return
	}
	b.transform.SetAcceleration(mgl64.Vec3{})
}

// Integrate updates velocity from acceleration. Static bodies keep their
// stored velocity.
func (b *RigidBody) Integrate(dtMs float64) {
	if b.canMove {
		b.transform.Integrate(dtMs)
	}
}

func (b *RigidBody) Move(dtMs float64) {
	if b.canMove {
		b.transform.Move(dtMs)
	}
}

func (b *RigidBody) MoveFraction(dtMs, scale float64) {
	if b.canMove {
		b.transform.MoveFraction(dtMs, scale)
	}
}

// Undo rolls back to the pose before the last Move.
func (b *RigidBody) Undo() {
	if b.canMove {
		b.transform.Undo()
	}
}

// ComputeActualVertices refreshes both world-space vertex caches if the pose
// changed since they were last computed.
func (b *RigidBody) ComputeActualVertices() {
	b.ActualRenderVertices()
	b.ActualCollisionVertices()
}

// ActualRenderVertices returns the render mesh in world space. The returned
// slice is owned by the body and valid until the next pose change.
func (b *RigidBody) ActualRenderVertices() []mgl64.Vec3 {
	if v := b.transform.Version(); v != b.renderVersion || b.renderWorld == nil {
		b.renderWorld = transformVertices(b.renderWorld, b.render.Vertices, b.transform.Matrix())
		b.renderVersion = v
	}
	return b.renderWorld
}

// ActualCollisionVertices returns the collision mesh in world space.
func (b *RigidBody) ActualCollisionVertices() []mgl64.Vec3 {
	if v := b.transform.Version(); v != b.collisionVersion || b.collisionWorld == nil {
		b.collisionWorld = transformVertices(b.collisionWorld, b.collision.Vertices, b.transform.Matrix())
		b.collisionVersion = v
	}
	return b.collisionWorld
}

// PrevCollisionVertices returns the collision mesh under the previous pose.
func (b *RigidBody) PrevCollisionVertices() []mgl64.Vec3 {
	if v := b.transform.PrevVersion(); v != b.prevCollisionAt || b.prevCollisionWorld == nil {
		b.prevCollisionWorld = transformVertices(b.prevCollisionWorld, b.collision.Vertices, b.transform.PrevMatrix())
		b.prevCollisionAt = v
	}
	return b.prevCollisionWorld
}

// CenterOfMass is the mean render vertex in world space.
func (b *RigidBody) CenterOfMass() mgl64.Vec3 {
	return b.transform.Apply(b.renderCentroidLocal)
}

func transformVertices(dst []mgl64.Vec3, src []Vertex, m mgl64.Mat4) []mgl64.Vec3 {
	if cap(dst) < len(src) {
		dst = make([]mgl64.Vec3, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = TransformPoint(m, v.Position)
	}
	return dst
}
