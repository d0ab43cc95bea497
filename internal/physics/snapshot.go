package physics

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyState is the published, read-only view of one body after a step.
// Slices are copies and never change after publication; Faces are shared
// with the mesh and must not be modified.
type BodyState struct {
	Name              string     `json:"name"`
	Mesh              string     `json:"mesh"`
	CollisionMesh     string     `json:"collisionMesh"`
	Position          mgl64.Vec3 `json:"position"`
	Rotation          mgl64.Vec3 `json:"rotation"`
	Velocity          mgl64.Vec3 `json:"velocity"`
	AngularVelocity   mgl64.Vec3 `json:"angularVelocity"`
	CenterOfMass      mgl64.Vec3 `json:"centerOfMass"`
	InverseMass       float64    `json:"inverseMass"`
	CanMove           bool       `json:"canMove"`
	AffectedByGravity bool       `json:"gravity"`
	Bounds            AABB       `json:"bounds"`

	Vertices          []mgl64.Vec3 `json:"-"`
	Normals           []mgl64.Vec3 `json:"-"`
	Faces             []Face       `json:"-"`
	CollisionVertices []mgl64.Vec3 `json:"-"`
	CollisionFaces    []Face       `json:"-"`
}

// ContactRecord describes one resolved collision.
type ContactRecord struct {
	A            int        `json:"a"`
	B            int        `json:"b"`
	Face         int        `json:"face"`
	TimeOfImpact float64    `json:"toi"`
	Normal       mgl64.Vec3 `json:"normal"`
}

// StepStats summarises one call to Step.
type StepStats struct {
	Step     uint64        `json:"step"`
	DtMs     float64       `json:"dtMs"`
	Wall     time.Duration `json:"wallNs"`
	Bodies   int           `json:"bodies"`
	Pairs    int           `json:"pairs"`
	Contacts int           `json:"contacts"`
	Passes   int           `json:"passes"`
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Step       uint64          `json:"step"`
	SimTimeMs  float64         `json:"simTimeMs"`
	Gravity    float64         `json:"gravity"`
	Elasticity float64         `json:"elasticity"`
	ConfigMode bool            `json:"configMode"`
	Bodies     []BodyState     `json:"bodies"`
	Contacts   []ContactRecord `json:"contacts"`
	Stats      StepStats       `json:"stats"`

	refs []*RigidBody // live bodies behind Bodies, for resolving queued indices
}

// State captures the body's current state for publication.
func (b *RigidBody) State() BodyState {
	render := b.ActualRenderVertices()
	collision := b.ActualCollisionVertices()

	rot := b.transform.RotationMatrix()
	normals := make([]mgl64.Vec3, len(b.render.Vertices))
	for i, v := range b.render.Vertices {
		n := rot.Mul4x1(v.Normal.Vec4(0)).Vec3()
		if n.Len() > 0 {
			n = n.Normalize()
		}
		normals[i] = n
	}

	return BodyState{
		Name:              b.name,
		Mesh:              b.render.Name,
		CollisionMesh:     b.collision.Name,
		Position:          b.transform.Position(),
		Rotation:          b.transform.Rotation(),
		Velocity:          b.Velocity(),
		AngularVelocity:   b.transform.AngularVelocity(),
		CenterOfMass:      b.CenterOfMass(),
		InverseMass:       b.inverseMass,
		CanMove:           b.canMove,
		AffectedByGravity: b.gravity,
		Bounds:            BoundsOf(collision),
		Vertices:          append([]mgl64.Vec3(nil), render...),
		Normals:           normals,
		Faces:             b.render.Faces,
		CollisionVertices: append([]mgl64.Vec3(nil), collision...),
		CollisionFaces:    b.collision.Faces,
	}
}

// Body returns the state of the named body.
func (s *Snapshot) Body(name string) (BodyState, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyState{}, false
}
