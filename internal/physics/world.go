package physics

import (
	"context"
	"log"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// postCollisionScale shortens the re-advance to the time of impact so bodies
// stop just short of the struck face.
const postCollisionScale = 0.98

// simTimeLogInterval is how much simulated time passes between sim-time log
// samples.
const simTimeLogInterval = 500.0

// Config holds the tunables of a World.
type Config struct {
	Gravity          float64       // vertical acceleration for bodies with gravity
	Elasticity       float64       // restitution, negative values lose energy
	MaxStepMs        float64       // upper bound on simulated time per step
	ResolutionPasses int           // collision passes per step
	StepInterval     time.Duration // pacing for Run, zero runs flat out
}

func DefaultConfig() Config {
	return Config{
		Gravity:          -9,
		Elasticity:       -0.4,
		MaxStepMs:        16,
		ResolutionPasses: 1,
	}
}

// EditKind selects what an Edit changes.
type EditKind int

const (
	EditTranslate EditKind = iota
	EditRotate
	EditSetPosition
	EditSetRotation
	EditSetVelocity
	EditSetInverseMass // Value.X() is the new inverse mass
)

// Edit is a non-physical change to one body, applied between steps. Body
// indexes the snapshot current when the edit is queued.
type Edit struct {
	Body  int
	Kind  EditKind
	Value mgl64.Vec3
}

// World steps a set of rigid bodies. Step must only be called from one
// goroutine; everything else on World is safe for concurrent use.
type World struct {
	Logger     *log.Logger
	Clock      func() time.Time
	PairFinder PairFinder

	maxStepMs float64
	passes    int
	interval  time.Duration

	bodies []*RigidBody
	boxes  []AABB

	mu            sync.Mutex
	gravity       float64
	elasticity    float64
	configMode    bool
	pendingAdd    []*RigidBody
	pendingRemove []*RigidBody
	pendingEdits  []pendingEdit
	simTimes      []float64

	started        bool
	lastStep       time.Time
	step           uint64
	simTimeMs      float64
	sinceSimSample float64

	snapshot atomic.Pointer[Snapshot]
}

type pendingEdit struct {
	body  *RigidBody
	kind  EditKind
	value mgl64.Vec3
}

// NewWorld takes ownership of bodies, sorts them by name and publishes an
// initial snapshot.
func NewWorld(cfg Config, bodies []*RigidBody) *World {
	if cfg.MaxStepMs <= 0 {
		cfg.MaxStepMs = DefaultConfig().MaxStepMs
	}
	if cfg.ResolutionPasses < 1 {
		cfg.ResolutionPasses = 1
	}
	w := &World{
		Logger:     log.Default(),
		Clock:      time.Now,
		PairFinder: BruteForce{},
		maxStepMs:  cfg.MaxStepMs,
		passes:     cfg.ResolutionPasses,
		interval:   cfg.StepInterval,
		bodies:     slices.Clone(bodies),
		gravity:    cfg.Gravity,
		elasticity: cfg.Elasticity,
	}
	sortBodies(w.bodies)
	for _, b := range w.bodies {
		b.ApplyGravity(w.gravity)
		b.ComputeActualVertices()
	}
	w.publish(nil, StepStats{Bodies: len(w.bodies)}, false)
	return w
}

func sortBodies(bodies []*RigidBody) {
	slices.SortStableFunc(bodies, func(a, b *RigidBody) int {
		return strings.Compare(a.Name(), b.Name())
	})
}

// Bodies returns the live body list. Only the stepping goroutine may use it.
func (w *World) Bodies() []*RigidBody { return w.bodies }

// Snapshot returns the most recently published state.
func (w *World) Snapshot() *Snapshot { return w.snapshot.Load() }

func (w *World) Gravity() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gravity
}

// SetGravity takes effect on the next step.
func (w *World) SetGravity(g float64) {
	w.mu.Lock()
	w.gravity = g
	w.mu.Unlock()
}

func (w *World) Elasticity() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elasticity
}

func (w *World) SetElasticity(e float64) {
	w.mu.Lock()
	w.elasticity = e
	w.mu.Unlock()
}

func (w *World) ConfigMode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.configMode
}

// SetConfigMode pauses physics. Steps keep applying queued changes and
// publishing snapshots while paused.
func (w *World) SetConfigMode(on bool) {
	w.mu.Lock()
	w.configMode = on
	w.mu.Unlock()
}

// AddBody queues b to join the world before the next step.
func (w *World) AddBody(b *RigidBody) {
	w.mu.Lock()
	w.pendingAdd = append(w.pendingAdd, b)
	w.mu.Unlock()
}

// RemoveBody queues the body at index for removal before the next step.
// The index refers to the current snapshot and is resolved immediately, so
// later additions or removals do not redirect it.
func (w *World) RemoveBody(index int) {
	b := w.resolve(index)
	if b == nil {
		w.logf("Physics: ignoring removal of body %d, not in the current snapshot", index)
		return
	}
	w.mu.Lock()
	w.pendingRemove = append(w.pendingRemove, b)
	w.mu.Unlock()
}

// QueueEdit queues a non-physical change for the next step.
func (w *World) QueueEdit(e Edit) {
	b := w.resolve(e.Body)
	if b == nil {
		w.logf("Physics: ignoring edit of body %d, not in the current snapshot", e.Body)
		return
	}
	w.mu.Lock()
	w.pendingEdits = append(w.pendingEdits, pendingEdit{body: b, kind: e.Kind, value: e.Value})
	w.mu.Unlock()
}

func (w *World) resolve(index int) *RigidBody {
	refs := w.Snapshot().refs
	if index < 0 || index >= len(refs) {
		return nil
	}
	return refs[index]
}

// SimTimes returns the sampled step durations in milliseconds.
func (w *World) SimTimes() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.simTimes)
}

// Run steps the world until ctx is cancelled.
func (w *World) Run(ctx context.Context) error {
	if w.interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				w.Step()
			}
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Step()
		}
	}
}

// Step simulates the wall-clock time since the previous step, capped at the
// configured maximum.
func (w *World) Step() StepStats {
	now := w.Clock()
	if !w.started {
		w.started = true
		w.lastStep = now
	}
	dt := float64(now.Sub(w.lastStep)) / float64(time.Millisecond)
	w.lastStep = now
	return w.StepFor(dt)
}

// StepFor simulates dtMs milliseconds, capped at the configured maximum.
func (w *World) StepFor(dtMs float64) StepStats {
	start := time.Now()
	w.applyPending()

	w.mu.Lock()
	gravity, elasticity, configMode := w.gravity, w.elasticity, w.configMode
	w.mu.Unlock()

	if configMode {
		stats := StepStats{Step: w.step, Bodies: len(w.bodies), Wall: time.Since(start)}
		w.publish(nil, stats, true)
		return stats
	}

	dtMs = min(max(dtMs, 0), w.maxStepMs)
	w.step++
	w.simTimeMs += dtMs
	w.sampleSimTime(dtMs)

	// 1. Integrate and move
	for _, b := range w.bodies {
		b.ApplyGravity(gravity)
		b.Integrate(dtMs)
		b.Move(dtMs)
	}

	// 2. Resolve collisions, repeating while passes keep finding hits
	stats := StepStats{Step: w.step, DtMs: dtMs, Bodies: len(w.bodies)}
	var contacts []ContactRecord
	for stats.Passes < w.passes {
		w.refreshBoxes()
		pairs := w.PairFinder.FindPairs(w.bodies, w.boxes)
		stats.Pairs += len(pairs)
		stats.Passes++

		hit := false
		for _, p := range pairs {
			ia, ib := p.A, p.B
			c := Collide(w.bodies[ia], w.bodies[ib], dtMs, w.boxes[ia], w.boxes[ib])
			if !c.Hit {
				// Sweep the other body's vertices; a static body never moves
				ia, ib = ib, ia
				c = Collide(w.bodies[ia], w.bodies[ib], dtMs, w.boxes[ia], w.boxes[ib])
				if !c.Hit {
					continue
				}
			}
			a, b := w.bodies[ia], w.bodies[ib]
			a.Undo()
			b.Undo()
			a.MoveFraction(c.TimeOfImpact, postCollisionScale)
			b.MoveFraction(c.TimeOfImpact, postCollisionScale)

			n := FaceNormal(b, c.Face)
			Resolve(a, b, n, elasticity)
			contacts = append(contacts, ContactRecord{
				A: ia, B: ib, Face: c.Face, TimeOfImpact: c.TimeOfImpact, Normal: n,
			})
			hit = true
		}
		if !hit {
			break
		}
	}

	stats.Contacts = len(contacts)
	stats.Wall = time.Since(start)
	w.publish(contacts, stats, false)
	return stats
}

func (w *World) refreshBoxes() {
	if cap(w.boxes) < len(w.bodies) {
		w.boxes = make([]AABB, len(w.bodies))
	}
	w.boxes = w.boxes[:len(w.bodies)]
	for i, b := range w.bodies {
		w.boxes[i] = ComputeAABB(b)
	}
}

func (w *World) sampleSimTime(dtMs float64) {
	w.sinceSimSample += dtMs
	if w.sinceSimSample <= simTimeLogInterval {
		return
	}
	w.sinceSimSample = 0
	w.mu.Lock()
	w.simTimes = append(w.simTimes, dtMs)
	w.mu.Unlock()
	if dtMs > 0 {
		w.logf("Physics: simulating %.0fms per step (%.1f steps/s), %d bodies", dtMs, 1000/dtMs, len(w.bodies))
	}
}

// applyPending drains queued removals, additions and edits in that order.
func (w *World) applyPending() {
	w.mu.Lock()
	adds, removes, edits := w.pendingAdd, w.pendingRemove, w.pendingEdits
	w.pendingAdd, w.pendingRemove, w.pendingEdits = nil, nil, nil
	gravity := w.gravity
	w.mu.Unlock()

	for _, b := range removes {
		i := slices.Index(w.bodies, b)
		if i < 0 {
			continue // already removed
		}
		b.Release()
		w.bodies = slices.Delete(w.bodies, i, i+1)
	}

	for _, b := range adds {
		b.ApplyGravity(gravity)
		b.ComputeActualVertices()
		w.bodies = append(w.bodies, b)
		w.logf("Physics: added body %q", b.Name())
	}

	for _, e := range edits {
		if !slices.Contains(w.bodies, e.body) {
			w.logf("Physics: ignoring edit of removed body %q", e.body.Name())
			continue
		}
		b := e.body
		t := b.Transform()
		switch e.kind {
		case EditTranslate:
			t.Translate(e.value)
		case EditRotate:
			t.Rotate(e.value)
		case EditSetPosition:
			t.SetPosition(e.value)
		case EditSetRotation:
			t.SetRotation(e.value)
		case EditSetVelocity:
			b.SetVelocity(e.value)
		case EditSetInverseMass:
			b.SetInverseMass(e.value.X())
		}
	}
}

func (w *World) publish(contacts []ContactRecord, stats StepStats, configMode bool) {
	w.mu.Lock()
	gravity, elasticity := w.gravity, w.elasticity
	w.mu.Unlock()

	snap := &Snapshot{
		Step:       w.step,
		SimTimeMs:  w.simTimeMs,
		Gravity:    gravity,
		Elasticity: elasticity,
		ConfigMode: configMode,
		Bodies:     make([]BodyState, len(w.bodies)),
		Contacts:   contacts,
		Stats:      stats,
		refs:       slices.Clone(w.bodies),
	}
	for i, b := range w.bodies {
		snap.Bodies[i] = b.State()
	}
	w.snapshot.Store(snap)
}

func (w *World) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}
