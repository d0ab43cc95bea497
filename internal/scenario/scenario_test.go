package scenario

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"rigidsim/internal/assets"
	"rigidsim/internal/physics"
)

const legacyCfg = `2
cube
floor
lowPolycube
lowPolyfloor
pos 0.0 4.0 0.5
0.0 0.0 0.0
rot 0.0 15.0 0.0
0.0 0.0 0.0
true
FALSE
900
1
TRUE
false
0.0 -1.5 0.0
0.0 0.0 0.0
-9.0
-0.4
`

func TestReadLegacy(t *testing.T) {
	def, err := ReadLegacy(strings.NewReader(legacyCfg))
	if err != nil {
		t.Fatalf("ReadLegacy: %v", err)
	}
	if len(def.Objects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(def.Objects))
	}

	cube, floor := def.Objects[0], def.Objects[1]
	if cube.Mesh != "cube" || cube.CollisionMesh != "lowPolycube" {
		t.Errorf("Unexpected mesh names %q / %q", cube.Mesh, cube.CollisionMesh)
	}
	if cube.Position != [3]float64{0, 4, 0.5} {
		t.Errorf("Expected labelled position to parse, got %v", cube.Position)
	}
	if cube.Rotation != [3]float64{0, 15, 0} {
		t.Errorf("Expected rotation (0,15,0), got %v", cube.Rotation)
	}
	if !cube.CanMove || floor.CanMove {
		t.Errorf("Expected canMove true/false, got %v/%v", cube.CanMove, floor.CanMove)
	}
	if cube.InverseMass != 900 || floor.InverseMass != 1 {
		t.Errorf("Unexpected inverse masses %v / %v", cube.InverseMass, floor.InverseMass)
	}
	if !cube.Gravity || floor.Gravity {
		t.Errorf("Expected gravity true/false, got %v/%v", cube.Gravity, floor.Gravity)
	}
	if cube.Velocity != [3]float64{0, -1.5, 0} {
		t.Errorf("Expected velocity (0,-1.5,0), got %v", cube.Velocity)
	}
	if def.Gravity != -9 || def.Elasticity != -0.4 {
		t.Errorf("Expected gravity -9 and elasticity -0.4, got %v / %v", def.Gravity, def.Elasticity)
	}
}

func TestReadLegacyRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"bad count", "two\n"},
		{"truncated", "1\ncube\nlowPolycube\n0 0 0\n"},
		{"short vector", "1\ncube\nlowPolycube\n0 0\n"},
		{"bad inverse mass", "1\ncube\nlowPolycube\n0 0 0\n0 0 0\ntrue\nheavy\n"},
		{"nan position", "1\ncube\nlowPolycube\n0 NaN 0\n"},
		{"infinite rotation", "1\ncube\nlowPolycube\n0 0 0\nInf 0 0\n"},
		{"nan label slot", "1\ncube\nlowPolycube\nnan 0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadLegacy(strings.NewReader(tt.src)); !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	def := Definition{
		Gravity:    -9.81,
		Elasticity: -0.25,
		Objects: []ObjectDef{
			{Mesh: "cube", Position: [3]float64{1, 2.5, -3}, Rotation: [3]float64{10, 20, 30},
				Velocity: [3]float64{0, -1, 0}, CanMove: true, InverseMass: 900.7, Gravity: true},
			{Mesh: "floor", CollisionMesh: "floorLP", InverseMass: 1},
		},
	}

	var buf bytes.Buffer
	if err := WriteLegacy(&buf, def); err != nil {
		t.Fatalf("WriteLegacy: %v", err)
	}
	got, err := ReadLegacy(&buf)
	if err != nil {
		t.Fatalf("ReadLegacy: %v", err)
	}

	if got.Objects[0].CollisionMesh != "lowPolycube" {
		t.Errorf("Expected default collision name lowPolycube, got %q", got.Objects[0].CollisionMesh)
	}
	if got.Objects[0].InverseMass != 900 {
		t.Errorf("Expected inverse mass truncated to 900, got %v", got.Objects[0].InverseMass)
	}
	if got.Objects[0].Position != def.Objects[0].Position || got.Objects[0].Rotation != def.Objects[0].Rotation {
		t.Errorf("Pose changed: %v %v", got.Objects[0].Position, got.Objects[0].Rotation)
	}
	if got.Objects[1].CollisionMesh != "floorLP" || got.Objects[1].CanMove {
		t.Errorf("Unexpected floor %+v", got.Objects[1])
	}
	if got.Gravity != def.Gravity || got.Elasticity != def.Elasticity {
		t.Errorf("Expected globals %v/%v, got %v/%v", def.Gravity, def.Elasticity, got.Gravity, got.Elasticity)
	}
}

func TestWriteLegacyFormatsWholeNumbers(t *testing.T) {
	var buf bytes.Buffer
	def := Definition{Gravity: -9, Objects: []ObjectDef{{Mesh: "cube", Position: [3]float64{1, 2, 3}}}}
	if err := WriteLegacy(&buf, def); err != nil {
		t.Fatalf("WriteLegacy: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[3] != "1.0 2.0 3.0" {
		t.Errorf("Expected position line \"1.0 2.0 3.0\", got %q", lines[3])
	}
	if lines[9] != "-9.0" {
		t.Errorf("Expected gravity line \"-9.0\", got %q", lines[9])
	}
}

func TestSaveLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	def := Default()

	for _, name := range []string{"scene.json", "scene.yaml", "scene.yml", "scene.cfg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			if err := Save(path, def); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got.Objects) != len(def.Objects) {
				t.Fatalf("Expected %d objects, got %d", len(def.Objects), len(got.Objects))
			}
			if got.Objects[0].Position != def.Objects[0].Position {
				t.Errorf("Expected position %v, got %v", def.Objects[0].Position, got.Objects[0].Position)
			}
			if got.Gravity != def.Gravity || got.Elasticity != def.Elasticity {
				t.Errorf("Globals changed: %v/%v", got.Gravity, got.Elasticity)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}

	tests := []struct {
		file string
		data string
	}{
		{"bad.json", `{"gravity": "down"}`},
		{"unknown.json", `{"gravity": -9, "wind": 3}`},
		{"bad.yaml", "objects: [1, 2"},
		{"nomesh.yaml", "objects:\n  - position: [0, 0, 0]\n"},
		{"negative.json", `{"objects": [{"mesh": "cube", "inverseMass": -1}]}`},
		{"nan.yaml", "objects:\n  - mesh: cube\n    position: [0, .nan, 0]\n"},
		{"inf.yaml", "gravity: -.inf\nobjects:\n  - mesh: cube\n"},
		{"infvel.yaml", "objects:\n  - mesh: cube\n    velocity: [.inf, 0, 0]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	loader := assets.NewLoader(fstest.MapFS{})
	reg := physics.NewMeshRegistry()

	def := Definition{Objects: []ObjectDef{
		{Name: "a", Mesh: "builtin:cube:0.5", Position: [3]float64{0, 3, 0}, CanMove: true, Gravity: true},
		{Name: "b", Mesh: "builtin:cube:0.5", CollisionMesh: "builtin:cube:0.4", InverseMass: 5},
	}}
	bodies, err := Build(def, loader, reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("Expected 2 bodies, got %d", len(bodies))
	}
	if reg.Refs("builtin:cube:0.5") != 2 {
		t.Errorf("Expected the render mesh to be shared, got %d refs", reg.Refs("builtin:cube:0.5"))
	}
	if bodies[0].InverseMass() != physics.DefaultInverseMass {
		t.Errorf("Expected default inverse mass, got %v", bodies[0].InverseMass())
	}
	if bodies[1].CollisionMesh().Name != "builtin:cube:0.4" {
		t.Errorf("Expected the separate collision mesh, got %q", bodies[1].CollisionMesh().Name)
	}
	if bodies[0].Position().Y() != 3 {
		t.Errorf("Expected y=3, got %v", bodies[0].Position().Y())
	}
}

func TestBuildReleasesOnError(t *testing.T) {
	loader := assets.NewLoader(fstest.MapFS{})
	reg := physics.NewMeshRegistry()

	def := Definition{Objects: []ObjectDef{
		{Mesh: "builtin:cube"},
		{Mesh: "objects/missing.obj"},
	}}
	if _, err := Build(def, loader, reg); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Expected the registry to be empty after a failed build, got %d meshes", reg.Len())
	}
}

func TestFromSnapshot(t *testing.T) {
	loader := assets.NewLoader(fstest.MapFS{})
	bodies, err := Build(Default(), loader, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := physics.NewWorld(Default().Config(), bodies)

	def := FromSnapshot(w.Snapshot())
	if len(def.Objects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(def.Objects))
	}
	// Bodies are published in name order
	if def.Objects[0].Name != "cube" || !def.Objects[0].CanMove {
		t.Errorf("Unexpected first object %+v", def.Objects[0])
	}
	if def.Objects[1].Mesh != "builtin:floor:10" || def.Objects[1].CanMove {
		t.Errorf("Unexpected second object %+v", def.Objects[1])
	}
	if def.Gravity != Default().Gravity {
		t.Errorf("Expected gravity %v, got %v", Default().Gravity, def.Gravity)
	}
}

func TestShippedScenarios(t *testing.T) {
	for _, name := range []string{"default.yaml", "drop.cfg"} {
		t.Run(name, func(t *testing.T) {
			def, err := Load(filepath.Join("..", "..", "configs", name))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			bodies, err := Build(def, assets.NewLoader(fstest.MapFS{}), physics.NewMeshRegistry())
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(bodies) != len(def.Objects) {
				t.Errorf("Expected %d bodies, got %d", len(def.Objects), len(bodies))
			}
		})
	}
}
