// Stress test comparing CPU vs GPU broad-phase collision detection
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"time"

	"rigidsim/internal/compute"
	"rigidsim/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	iterations := flag.Int("iterations", 10, "timed runs per body count")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	info, err := compute.Initialize()
	if err != nil {
		log.Fatalf("Failed to init compute: %v", err)
	}
	fmt.Printf("GPU: %s\n\n", info)

	// Test various object counts
	for _, count := range []int{100, 500, 1000, 2000, 5000, 10000, 20000} {
		testBroadPhase(count, *iterations, *seed)
	}
}

func testBroadPhase(count, iterations int, seed int64) {
	bodies, boxes := randomScene(count, seed)

	maxPairs := uint32(count * 20) // Generous pair buffer
	bp, err := compute.NewBroadPhase(uint32(count), maxPairs)
	if err != nil {
		fmt.Printf("%5d bodies: GPU ERROR: %v\n", count, err)
		return
	}
	defer bp.Release()

	finder := compute.NewPairFinder(bp)
	finder.Threshold = 1
	finder.FindPairs(bodies, boxes) // warm up

	gpuStart := time.Now()
	var gpuPairs []physics.Pair
	for i := 0; i < iterations; i++ {
		gpuPairs = finder.FindPairs(bodies, boxes)
	}
	gpuTime := time.Since(gpuStart) / time.Duration(iterations)

	cpuStart := time.Now()
	var cpuPairs []physics.Pair
	for i := 0; i < iterations; i++ {
		cpuPairs = physics.BroadPhase(bodies, boxes, cpuPairs[:0])
	}
	cpuTime := time.Since(cpuStart) / time.Duration(iterations)

	match := "match"
	if !slices.Equal(gpuPairs, cpuPairs) {
		match = "MISMATCH"
	}
	fmt.Printf("%5d bodies: GPU %8v (%5d pairs) | CPU %10v (%5d pairs) | %.1fx speedup | %s\n",
		count, gpuTime.Round(time.Microsecond), len(gpuPairs),
		cpuTime.Round(time.Microsecond), len(cpuPairs),
		float64(cpuTime)/float64(gpuTime), match)
}

// randomScene scatters unit cubes in a volume that grows with count to keep
// the density reasonable. A quarter of them are static.
func randomScene(count int, seed int64) ([]*physics.RigidBody, []physics.AABB) {
	rng := rand.New(rand.NewSource(seed))
	spawnSize := 50.0 + float64(count)/100.0

	mesh := &physics.Mesh{
		Name: "stress_cube",
		Vertices: []physics.Vertex{
			{Position: mgl64.Vec3{-0.5, -0.5, -0.5}}, {Position: mgl64.Vec3{0.5, -0.5, -0.5}},
			{Position: mgl64.Vec3{0.5, 0.5, 0.5}}, {Position: mgl64.Vec3{-0.5, 0.5, 0.5}},
		},
		Faces: []physics.Face{{0, 1, 2}, {0, 2, 3}},
	}

	bodies := make([]*physics.RigidBody, count)
	boxes := make([]physics.AABB, count)
	for i := range bodies {
		b, err := physics.NewRigidBody(physics.BodyDef{
			Name:          fmt.Sprintf("b%05d", i),
			CollisionMesh: mesh,
			Position: mgl64.Vec3{
				rng.Float64()*spawnSize - spawnSize/2,
				rng.Float64()*spawnSize - spawnSize/2,
				rng.Float64()*spawnSize - spawnSize/2,
			},
			Rotation: mgl64.Vec3{0, rng.Float64() * 90, 0},
			CanMove:  rng.Intn(4) != 0,
		}, nil)
		if err != nil {
			log.Fatalf("NewRigidBody: %v", err)
		}
		b.ComputeActualVertices()
		bodies[i] = b
		boxes[i] = physics.ComputeAABB(b)
	}
	return bodies, boxes
}
