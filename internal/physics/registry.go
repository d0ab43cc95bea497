package physics

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type meshEntry struct {
	mesh  *Mesh
	refs  int
	hash  uint64
	names []string
}

// MeshRegistry shares render meshes between bodies. Meshes are deduplicated
// by name and by content, and reference counted so the last Release evicts
// them.
type MeshRegistry struct {
	mu     sync.Mutex
	byName map[string]*meshEntry
	byHash map[uint64][]*meshEntry
}

func NewMeshRegistry() *MeshRegistry {
	return &MeshRegistry{
		byName: make(map[string]*meshEntry),
		byHash: make(map[uint64][]*meshEntry),
	}
}

// Acquire returns the shared mesh for m, registering m if neither its name
// nor its content is known yet. Each call must be paired with Release(m.Name).
func (r *MeshRegistry) Acquire(m *Mesh) *Mesh {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byName[m.Name]; ok {
		e.refs++
		return e.mesh
	}

	h := hashMesh(m)
	for _, e := range r.byHash[h] {
		if sameMesh(e.mesh, m) {
			e.refs++
			e.names = append(e.names, m.Name)
			r.byName[m.Name] = e
			return e.mesh
		}
	}

	e := &meshEntry{mesh: m, refs: 1, hash: h, names: []string{m.Name}}
	r.byName[m.Name] = e
	r.byHash[h] = append(r.byHash[h], e)
	return m
}

// Release drops one reference taken under name. It reports whether the
// shared mesh was evicted.
func (r *MeshRegistry) Release(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byName[name]
	if !ok {
		return false
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	for _, n := range e.names {
		delete(r.byName, n)
	}
	bucket := slices.DeleteFunc(r.byHash[e.hash], func(o *meshEntry) bool { return o == e })
	if len(bucket) == 0 {
		delete(r.byHash, e.hash)
	} else {
		r.byHash[e.hash] = bucket
	}
	return true
}

// Refs returns the number of live references to the mesh registered as name.
func (r *MeshRegistry) Refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byName[name]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of distinct shared meshes.
func (r *MeshRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, bucket := range r.byHash {
		n += len(bucket)
	}
	return n
}

// Close drops every mesh regardless of outstanding references.
func (r *MeshRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.byName)
	clear(r.byHash)
}

// hashMesh is FNV-1a over every vertex attribute and face index.
func hashMesh(m *Mesh) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range m.Vertices {
		for _, vec := range [...]mgl64.Vec3{v.Position, v.Normal, v.UV} {
			for _, c := range vec {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c))
				h.Write(buf[:])
			}
		}
	}
	for _, f := range m.Faces {
		for _, idx := range f {
			binary.LittleEndian.PutUint64(buf[:], uint64(idx))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func sameMesh(a, b *Mesh) bool {
	return slices.Equal(a.Vertices, b.Vertices) && slices.Equal(a.Faces, b.Faces)
}
