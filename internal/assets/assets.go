package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"

	"rigidsim/internal/physics"
)

// BuiltinPrefix marks procedural meshes, e.g. "builtin:cube:0.5" or
// "builtin:floor:10".
const BuiltinPrefix = "builtin:"

// Asset is a loaded mesh with its material.
type Asset struct {
	Mesh     *physics.Mesh
	Material *Material
}

// Loader reads meshes and materials from a file system and caches them by
// name. Cached meshes are shared and must not be modified.
type Loader struct {
	fsys fs.FS

	mu        sync.Mutex
	meshes    map[string]*Asset
	materials map[string]map[string]*Material
}

func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:      fsys,
		meshes:    make(map[string]*Asset),
		materials: make(map[string]map[string]*Material),
	}
}

// Load returns the mesh called name, parsing it on first use.
func (l *Loader) Load(name string) (*Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.meshes[name]; ok {
		return a, nil
	}

	var (
		a   *Asset
		err error
	)
	if strings.HasPrefix(name, BuiltinPrefix) {
		a, err = builtin(name)
	} else {
		a, err = l.loadOBJ(name)
	}
	if err != nil {
		return nil, err
	}
	l.meshes[name] = a
	return a, nil
}

// Mesh is Load without the material.
func (l *Loader) Mesh(name string) (*physics.Mesh, error) {
	a, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	return a.Mesh, nil
}

// Unload drops every cached asset.
func (l *Loader) Unload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meshes = make(map[string]*Asset)
	l.materials = make(map[string]map[string]*Material)
}

func (l *Loader) loadOBJ(name string) (*Asset, error) {
	f, err := l.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	obj, err := ParseOBJ(f, name)
	if err != nil {
		return nil, err
	}

	a := &Asset{Mesh: obj.Mesh, Material: DefaultMaterial()}
	for _, lib := range obj.MaterialLibs {
		mats, err := l.loadMTL(path.Join(path.Dir(name), lib))
		if err != nil {
			return nil, err
		}
		if m, ok := mats[obj.Material]; ok {
			a.Material = m
		}
	}
	return a, nil
}

func (l *Loader) loadMTL(name string) (map[string]*Material, error) {
	if mats, ok := l.materials[name]; ok {
		return mats, nil
	}
	f, err := l.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	mats, err := ParseMTL(f, name)
	if err != nil {
		return nil, err
	}
	l.materials[name] = mats
	return mats, nil
}

func builtin(name string) (*Asset, error) {
	parts := strings.Split(strings.TrimPrefix(name, BuiltinPrefix), ":")
	size := 0.0
	if len(parts) > 1 {
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: bad size in %q", ErrMalformed, name)
		}
		size = v
	}

	var mesh *physics.Mesh
	switch parts[0] {
	case "cube":
		if size == 0 {
			size = 0.5
		}
		mesh = Cube(name, size)
	case "floor":
		if size == 0 {
			size = 10
		}
		mesh = Floor(name, int(size), 1)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &Asset{Mesh: mesh, Material: DefaultMaterial()}, nil
}
