package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// velocityDamping divides the pre-collision velocity kept after a hit.
const velocityDamping = 1.5

// FaceNormal returns the unit normal of a collision face in world space,
// following the face winding. Out of range or degenerate faces give zero.
func FaceNormal(b *RigidBody, face int) mgl64.Vec3 {
	faces := b.CollisionMesh().Faces
	if face < 0 || face >= len(faces) {
		return mgl64.Vec3{}
	}
	verts := b.ActualCollisionVertices()
	f := faces[face]
	p1, p2, p3 := verts[f[0]], verts[f[1]], verts[f[2]]
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Len() == 0 {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// Impulses returns the velocity changes for A and B along normal n with
// restitution e and inverse masses ima and imb.
func Impulses(va, vb, n mgl64.Vec3, ima, imb, e float64) (da, db mgl64.Vec3) {
	vr := vb.Sub(va)
	k := (1 + e) * vr.Dot(n) / (ima + imb)
	impulse := n.Mul(k)
	return impulse.Mul(ima), impulse.Mul(-imb)
}

// Resolve applies the impulse for a contact between a and b. A keeps a
// damped share of its velocity plus its impulse delta. B's new velocity is
// built on A's result rather than on B's own delta.
func Resolve(a, b *RigidBody, n mgl64.Vec3, e float64) (va, vb mgl64.Vec3) {
	oldA, oldB := a.Velocity(), b.Velocity()
	da, _ := Impulses(oldA, oldB, n, a.InverseMass(), b.InverseMass(), e)

	va = oldA.Mul(1 / velocityDamping).Add(da)
	vb = oldB.Mul(1 / velocityDamping).Add(va)
	a.SetVelocity(va)
	b.SetVelocity(vb)
	return va, vb
}
