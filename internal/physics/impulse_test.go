package physics

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestImpulses(t *testing.T) {
	va := mgl64.Vec3{0, -5, 0}
	vb := mgl64.Vec3{0, 1, 0}
	n := mgl64.Vec3{0, 1, 0}

	da, db := Impulses(va, vb, n, 2, 1, -0.4)

	// k = 0.6 * 6 / 3 = 1.2
	if !vecApprox(da, mgl64.Vec3{0, 2.4, 0}) {
		t.Errorf("Expected delta A (0,2.4,0), got %v", da)
	}
	if !vecApprox(db, mgl64.Vec3{0, -1.2, 0}) {
		t.Errorf("Expected delta B (0,-1.2,0), got %v", db)
	}
}

func TestResolveCouplesBothVelocitiesToA(t *testing.T) {
	a := newBody(t, BodyDef{Name: "a", CollisionMesh: cubeMesh("a", 1), Velocity: mgl64.Vec3{0, -3, 0}, InverseMass: 1, CanMove: true})
	b := newBody(t, BodyDef{Name: "b", CollisionMesh: cubeMesh("b", 1), Velocity: mgl64.Vec3{0, 3, 0}, InverseMass: 1, CanMove: true})

	va, vb := Resolve(a, b, mgl64.Vec3{0, 1, 0}, 0)

	// Vr.n = 6, k = 3, dA = 3
	wantA := mgl64.Vec3{0, -2 + 3, 0}
	wantB := mgl64.Vec3{0, 2, 0}.Add(wantA)
	if !vecApprox(va, wantA) || !vecApprox(a.Velocity(), wantA) {
		t.Errorf("Expected A velocity %v, got %v", wantA, a.Velocity())
	}
	if !vecApprox(vb, wantB) || !vecApprox(b.Velocity(), wantB) {
		t.Errorf("Expected B velocity %v, got %v", wantB, b.Velocity())
	}
}

func TestResolveAgainstStaticBodyIsEnergyBounded(t *testing.T) {
	n := mgl64.Vec3{0, 1, 0}
	for _, e := range []float64{-1, -0.75, -0.4, -0.1, 0} {
		for _, masses := range [][2]float64{{900, 900}, {900, 0.001}, {1, 50}, {10, 1}} {
			t.Run(fmt.Sprintf("e=%v/ima=%v/imb=%v", e, masses[0], masses[1]), func(t *testing.T) {
				a := newBody(t, BodyDef{Name: "a", CollisionMesh: cubeMesh("a", 1),
					Velocity: mgl64.Vec3{1, -4, 2}, InverseMass: masses[0], CanMove: true})
				b := newBody(t, BodyDef{Name: "b", CollisionMesh: cubeMesh("b", 1), InverseMass: masses[1]})

				before := normalEnergy(a, b, n)
				Resolve(a, b, n, e)
				after := normalEnergy(a, b, n)

				if after > before+1e-9 {
					t.Errorf("Energy along normal grew from %v to %v", before, after)
				}
				if b.Velocity() != (mgl64.Vec3{}) {
					t.Errorf("Static body should still report zero velocity, got %v", b.Velocity())
				}
			})
		}
	}
}

// normalEnergy is the kinetic energy of both bodies along n.
func normalEnergy(a, b *RigidBody, n mgl64.Vec3) float64 {
	va := a.Velocity().Dot(n)
	vb := b.Velocity().Dot(n)
	return 0.5*va*va/a.InverseMass() + 0.5*vb*vb/b.InverseMass()
}
