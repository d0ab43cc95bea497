// Package scenario loads and saves simulation set-ups: which meshes to spawn,
// where, with which physical properties, plus the global gravity and
// elasticity.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"rigidsim/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrMalformed = errors.New("malformed scenario")

// CollisionPrefix is prepended to a mesh name to find its low-resolution
// collision mesh when none is given.
const CollisionPrefix = "lowPoly"

// --- File types ---

type Definition struct {
	Gravity    float64     `json:"gravity" yaml:"gravity"`
	Elasticity float64     `json:"elasticity" yaml:"elasticity"`
	Objects    []ObjectDef `json:"objects" yaml:"objects"`
}

type ObjectDef struct {
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	Mesh          string     `json:"mesh" yaml:"mesh"`
	CollisionMesh string     `json:"collisionMesh,omitempty" yaml:"collisionMesh,omitempty"`
	Position      [3]float64 `json:"position" yaml:"position,flow"`
	Rotation      [3]float64 `json:"rotation" yaml:"rotation,flow"`
	Velocity      [3]float64 `json:"velocity" yaml:"velocity,flow"`
	CanMove       bool       `json:"canMove" yaml:"canMove"`
	InverseMass   float64    `json:"inverseMass" yaml:"inverseMass"`
	Gravity       bool       `json:"gravity" yaml:"gravity"`
}

// Default is the scenario used when none is given: a cube dropping onto a
// static floor.
func Default() Definition {
	cfg := physics.DefaultConfig()
	return Definition{
		Gravity:    cfg.Gravity,
		Elasticity: cfg.Elasticity,
		Objects: []ObjectDef{
			{
				Name: "cube", Mesh: "builtin:cube:0.5", CollisionMesh: "builtin:cube:0.5",
				Position: [3]float64{0.2, 4, 0.3}, Rotation: [3]float64{0, 15, 0},
				CanMove: true, InverseMass: physics.DefaultInverseMass, Gravity: true,
			},
			{
				Name: "floor", Mesh: "builtin:floor:10", CollisionMesh: "builtin:floor:10",
				InverseMass: 1,
			},
		},
	}
}

// --- Loading ---

// Load reads a scenario, choosing the format from the file extension:
// .json, .yaml/.yml, anything else is the line format.
func Load(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read scenario: %w", err)
	}
	defer f.Close()

	var def Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return Definition{}, fmt.Errorf("%w: parse %s: %v", ErrMalformed, path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return Definition{}, fmt.Errorf("%w: parse %s: %v", ErrMalformed, path, err)
		}
	default:
		def, err = ReadLegacy(f)
		if err != nil {
			return Definition{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Save writes def in the format matching the file extension.
func Save(path string, def Definition) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create scenario dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(def)
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(def)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = WriteLegacy(f, def)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write scenario: %w", err)
	}
	return f.Close()
}

// Validate checks what the loader cannot know from syntax alone.
func (d Definition) Validate() error {
	if !finite(d.Gravity, d.Elasticity) {
		return fmt.Errorf("%w: non-finite gravity or elasticity", ErrMalformed)
	}
	for i, o := range d.Objects {
		if o.Mesh == "" {
			return fmt.Errorf("%w: object %d has no mesh", ErrMalformed, i)
		}
		if o.InverseMass < 0 {
			return fmt.Errorf("%w: object %d has negative inverse mass", ErrMalformed, i)
		}
		if !finite(o.InverseMass) || !finite(o.Position[:]...) || !finite(o.Rotation[:]...) || !finite(o.Velocity[:]...) {
			return fmt.Errorf("%w: object %d has a non-finite value", ErrMalformed, i)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// --- Building ---

// MeshSource supplies meshes by name.
type MeshSource interface {
	Mesh(name string) (*physics.Mesh, error)
}

// Build creates the bodies described by def. Render meshes are shared
// through reg.
func Build(def Definition, src MeshSource, reg *physics.MeshRegistry) ([]*physics.RigidBody, error) {
	bodies := make([]*physics.RigidBody, 0, len(def.Objects))
	release := func() {
		for _, b := range bodies {
			b.Release()
		}
	}

	for i, o := range def.Objects {
		b, err := BuildObject(o, src, reg)
		if err != nil {
			release()
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// BuildObject creates a single body.
func BuildObject(o ObjectDef, src MeshSource, reg *physics.MeshRegistry) (*physics.RigidBody, error) {
	render, err := src.Mesh(o.Mesh)
	if err != nil {
		return nil, fmt.Errorf("load mesh: %w", err)
	}
	collision := render
	if o.CollisionMesh != "" && o.CollisionMesh != o.Mesh {
		collision, err = src.Mesh(o.CollisionMesh)
		if err != nil {
			return nil, fmt.Errorf("load collision mesh: %w", err)
		}
	}

	name := o.Name
	if name == "" {
		name = o.Mesh
	}
	return physics.NewRigidBody(physics.BodyDef{
		Name:          name,
		RenderMesh:    render,
		CollisionMesh: collision,
		Position:      mgl64.Vec3(o.Position),
		Rotation:      mgl64.Vec3(o.Rotation),
		Velocity:      mgl64.Vec3(o.Velocity),
		InverseMass:   o.InverseMass,
		CanMove:       o.CanMove,
		Gravity:       o.Gravity,
	}, reg)
}

// Config returns the world configuration for def.
func (d Definition) Config() physics.Config {
	cfg := physics.DefaultConfig()
	cfg.Gravity = d.Gravity
	cfg.Elasticity = d.Elasticity
	return cfg
}

// --- Saving ---

// FromSnapshot captures the current state of a world so it can be saved and
// reloaded later.
func FromSnapshot(s *physics.Snapshot) Definition {
	def := Definition{Gravity: s.Gravity, Elasticity: s.Elasticity}
	for _, b := range s.Bodies {
		def.Objects = append(def.Objects, ObjectFromState(b))
	}
	return def
}

// ObjectFromState describes a published body so it can be rebuilt.
func ObjectFromState(b physics.BodyState) ObjectDef {
	return ObjectDef{
		Name:          b.Name,
		Mesh:          b.Mesh,
		CollisionMesh: b.CollisionMesh,
		Position:      b.Position,
		Rotation:      b.Rotation,
		Velocity:      b.Velocity,
		CanMove:       b.CanMove,
		InverseMass:   b.InverseMass,
		Gravity:       b.AffectedByGravity,
	}
}
