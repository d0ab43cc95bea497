package physics

// Pair is a candidate collision between bodies A and B, with A < B.
type Pair struct {
	A, B int
}

// PairFinder produces candidate pairs from per-body boxes. boxes[i] belongs
// to bodies[i]. Implementations must return pairs ordered by (A, B).
type PairFinder interface {
	FindPairs(bodies []*RigidBody, boxes []AABB) []Pair
}

// BruteForce checks every pair of bodies.
type BruteForce struct{}

func (BruteForce) FindPairs(bodies []*RigidBody, boxes []AABB) []Pair {
	return BroadPhase(bodies, boxes, nil)
}

// BroadPhase appends to dst every pair i < j where at least one body can
// move and the boxes overlap.
func BroadPhase(bodies []*RigidBody, boxes []AABB, dst []Pair) []Pair {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if !bodies[i].CanMove() && !bodies[j].CanMove() {
				continue
			}
			if Overlaps(boxes[i], boxes[j]) {
				dst = append(dst, Pair{A: i, B: j})
			}
		}
	}
	return dst
}
