package compute

import (
	"errors"
	"fmt"
	"math"

	"rigidsim/internal/physics"

	"github.com/cogentcore/webgpu/wgpu"
)

// BroadPhase finds overlapping AABB pairs on the GPU.
type BroadPhase struct {
	system   *System
	pipeline *Pipeline

	boxBuffer   *Buffer // input: one Box per body
	pairBuffer  *Buffer // output: overlapping pairs
	countBuffer *Buffer // output: number of pairs written
	countParam  *Buffer // uniform: number of boxes

	maxBoxes uint32
	maxPairs uint32
}

// Box is a body's AABB as uploaded to the GPU. The layout matches the WGSL
// struct: vec3 min, u32 flag, vec3 max, u32 padding.
type Box struct {
	Min    [3]float32
	Static uint32
	Max    [3]float32
	_      uint32
}

// CollisionPair holds the indices of two boxes that may be colliding.
type CollisionPair struct {
	A, B uint32
}

const boxSize = 32

// ErrPairOverflow is returned when more pairs overlap than the output buffer
// holds.
var ErrPairOverflow = errors.New("broad-phase pair buffer overflow")

const broadPhaseShader = `
// Each thread tests one box against every box with a higher index, so each
// unordered pair is visited once.

struct Box {
    lo: vec3<f32>,
    isStatic: u32,
    hi: vec3<f32>,
    pad: u32,
}

struct Pair {
    a: u32,
    b: u32,
}

@group(0) @binding(0) var<storage, read> boxes: array<Box>;
@group(0) @binding(1) var<storage, read_write> pairs: array<Pair>;
@group(0) @binding(2) var<storage, read_write> pairCount: atomic<u32>;
@group(0) @binding(3) var<uniform> boxCount: u32;

fn containsCornerOf(outer: Box, inner: Box) -> bool {
    for (var c = 0u; c < 8u; c = c + 1u) {
        let p = vec3<f32>(
            select(inner.lo.x, inner.hi.x, (c & 1u) != 0u),
            select(inner.lo.y, inner.hi.y, (c & 2u) != 0u),
            select(inner.lo.z, inner.hi.z, (c & 4u) != 0u),
        );
        if (all(p >= outer.lo) && all(p <= outer.hi)) {
            return true;
        }
    }
    return false;
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= boxCount) {
        return;
    }

    let a = boxes[i];
    for (var j = i + 1u; j < boxCount; j = j + 1u) {
        let b = boxes[j];
        if (a.isStatic != 0u && b.isStatic != 0u) {
            continue;
        }
        if (containsCornerOf(b, a) || containsCornerOf(a, b)) {
            let idx = atomicAdd(&pairCount, 1u);
            if (idx < arrayLength(&pairs)) {
                pairs[idx] = Pair(i, j);
            }
        }
    }
}
`

// NewBroadPhase allocates buffers for up to maxBoxes boxes and maxPairs
// output pairs. Initialize must have succeeded first.
func NewBroadPhase(maxBoxes, maxPairs uint32) (*BroadPhase, error) {
	sys := Get()
	if sys == nil {
		return nil, fmt.Errorf("compute not initialized")
	}
	maxBoxes, maxPairs = max(maxBoxes, 1), max(maxPairs, 1)

	pipeline, err := sys.pipeline("broadphase", broadPhaseShader, []wgpu.BufferBindingType{
		wgpu.BufferBindingTypeReadOnlyStorage,
		wgpu.BufferBindingTypeStorage,
		wgpu.BufferBindingTypeStorage,
		wgpu.BufferBindingTypeUniform,
	})
	if err != nil {
		return nil, err
	}

	bp := &BroadPhase{system: sys, pipeline: pipeline, maxBoxes: maxBoxes, maxPairs: maxPairs}
	specs := []struct {
		dst   **Buffer
		label string
		size  uint64
		usage wgpu.BufferUsage
	}{
		{&bp.boxBuffer, "boxes", uint64(maxBoxes) * boxSize, wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst},
		{&bp.pairBuffer, "pairs", uint64(maxPairs) * 8, wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc},
		{&bp.countBuffer, "pairCount", 4, wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst},
		{&bp.countParam, "boxCount", 16, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst},
	}
	for _, s := range specs {
		*s.dst, err = sys.createBuffer(s.label, s.size, s.usage)
		if err != nil {
			bp.Release()
			return nil, err
		}
	}
	return bp, nil
}

// Capacity returns the maximum number of boxes per call.
func (bp *BroadPhase) Capacity() int { return int(bp.maxBoxes) }

// DetectPairs returns every pair i < j whose boxes overlap and which are not
// both static. Pairs come back in no particular order. It fails when boxes
// exceed the capacity or the pair buffer overflows.
func (bp *BroadPhase) DetectPairs(boxes []Box) ([]CollisionPair, error) {
	if len(boxes) < 2 {
		return nil, nil
	}
	if uint32(len(boxes)) > bp.maxBoxes {
		return nil, fmt.Errorf("broad-phase: %d boxes exceed capacity %d", len(boxes), bp.maxBoxes)
	}

	n := uint32(len(boxes))
	bp.system.writeBuffer(bp.boxBuffer, wgpu.ToBytes(boxes))
	bp.system.writeBuffer(bp.countBuffer, wgpu.ToBytes([]uint32{0}))
	bp.system.writeBuffer(bp.countParam, wgpu.ToBytes([]uint32{n, 0, 0, 0}))

	err := bp.system.dispatch(bp.pipeline, (n+255)/256, bp.boxBuffer, bp.pairBuffer, bp.countBuffer, bp.countParam)
	if err != nil {
		return nil, err
	}

	countData, err := bp.system.readBuffer(bp.countBuffer, 4)
	if err != nil {
		return nil, err
	}
	count := wgpu.FromBytes[uint32](countData)[0]
	if count == 0 {
		return nil, nil
	}
	if count > bp.maxPairs {
		return nil, fmt.Errorf("%w: %d pairs, room for %d", ErrPairOverflow, count, bp.maxPairs)
	}

	pairData, err := bp.system.readBuffer(bp.pairBuffer, uint64(count)*8)
	if err != nil {
		return nil, err
	}
	pairs := make([]CollisionPair, count)
	copy(pairs, wgpu.FromBytes[CollisionPair](pairData))
	return pairs, nil
}

// Release frees GPU resources.
func (bp *BroadPhase) Release() {
	for _, b := range []*Buffer{bp.boxBuffer, bp.pairBuffer, bp.countBuffer, bp.countParam} {
		if b != nil {
			b.Release()
		}
	}
}

// PackBox converts an AABB to float32, rounding outwards so the GPU box
// always contains the exact one.
func PackBox(a physics.AABB, static bool) Box {
	var b Box
	for i := 0; i < 3; i++ {
		b.Min[i] = roundDown(a.Min[i])
		b.Max[i] = roundUp(a.Max[i])
	}
	if static {
		b.Static = 1
	}
	return b
}

func roundDown(v float64) float32 {
	f := float32(v)
	if float64(f) > v {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	return f
}

func roundUp(v float64) float32 {
	f := float32(v)
	if float64(f) < v {
		f = math.Nextafter32(f, float32(math.Inf(1)))
	}
	return f
}
