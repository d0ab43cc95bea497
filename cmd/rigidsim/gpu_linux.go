//go:build linux

package main

import (
	"log"

	"rigidsim/internal/compute"
)

func gpuPairFinder() *compute.PairFinder {
	// WebGPU and raylib's EGL context conflict on NVIDIA under X11
	log.Println("Physics: GPU broad-phase disabled next to a window on Linux, use cmd/headless -gpu")
	return nil
}
