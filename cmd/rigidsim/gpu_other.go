//go:build !linux

package main

import (
	"log"

	"rigidsim/internal/compute"
)

func gpuPairFinder() *compute.PairFinder {
	info, err := compute.Initialize()
	if err != nil {
		log.Printf("Physics: no GPU, using CPU broad-phase: %v", err)
		return nil
	}
	log.Printf("Physics: GPU %s", info)

	const maxBodies = 8192
	bp, err := compute.NewBroadPhase(maxBodies, maxBodies*16)
	if err != nil {
		log.Printf("Physics: GPU broad-phase unavailable: %v", err)
		return nil
	}
	return compute.NewPairFinder(bp)
}
