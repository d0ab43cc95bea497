package compute

import (
	"errors"
	"log"
	"slices"

	"rigidsim/internal/physics"
)

// DefaultThreshold is the body count from which the GPU path is used.
// Below it the upload and readback cost more than the CPU loop.
const DefaultThreshold = 256

// PairFinder runs the broad-phase on the GPU for large worlds and on the
// CPU otherwise. GPU candidates are confirmed against the exact float64
// boxes, so both paths return the same pairs in the same order.
type PairFinder struct {
	GPU       *BroadPhase // nil means CPU only
	Threshold int
	Fallback  physics.PairFinder
	Logger    *log.Logger

	boxes  []Box
	failed bool
}

// NewPairFinder wraps bp, which may be nil.
func NewPairFinder(bp *BroadPhase) *PairFinder {
	return &PairFinder{
		GPU:       bp,
		Threshold: DefaultThreshold,
		Fallback:  physics.BruteForce{},
		Logger:    log.Default(),
	}
}

func (f *PairFinder) FindPairs(bodies []*physics.RigidBody, boxes []physics.AABB) []physics.Pair {
	if f.GPU == nil || f.failed || len(bodies) < f.Threshold || len(bodies) > f.GPU.Capacity() {
		return f.fallback().FindPairs(bodies, boxes)
	}

	f.boxes = f.boxes[:0]
	for i, b := range bodies {
		f.boxes = append(f.boxes, PackBox(boxes[i], !b.CanMove()))
	}
	raw, err := f.GPU.DetectPairs(f.boxes)
	if err != nil {
		// Overflow depends on the scene, anything else means the device is gone
		f.failed = !errors.Is(err, ErrPairOverflow)
		if f.Logger != nil {
			f.Logger.Printf("Physics: GPU broad-phase failed, using CPU: %v", err)
		}
		return f.fallback().FindPairs(bodies, boxes)
	}
	return ConfirmPairs(raw, boxes)
}

// Release frees the GPU buffers. Later calls use the CPU fallback.
func (f *PairFinder) Release() {
	if f.GPU != nil {
		f.GPU.Release()
		f.GPU = nil
	}
}

func (f *PairFinder) fallback() physics.PairFinder {
	if f.Fallback == nil {
		return physics.BruteForce{}
	}
	return f.Fallback
}

// ConfirmPairs drops candidates whose exact boxes do not overlap and sorts
// the rest by (A, B).
func ConfirmPairs(raw []CollisionPair, boxes []physics.AABB) []physics.Pair {
	pairs := make([]physics.Pair, 0, len(raw))
	for _, p := range raw {
		a, b := int(p.A), int(p.B)
		if a > b {
			a, b = b, a
		}
		if physics.Overlaps(boxes[a], boxes[b]) {
			pairs = append(pairs, physics.Pair{A: a, B: b})
		}
	}
	slices.SortFunc(pairs, func(x, y physics.Pair) int {
		if x.A != y.A {
			return x.A - y.A
		}
		return x.B - y.B
	})
	return slices.Compact(pairs)
}
