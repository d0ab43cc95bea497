package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"rigidsim/internal/assets"
	"rigidsim/internal/physics"
	"rigidsim/internal/scenario"
	"rigidsim/internal/viewer"
)

func main() {
	scenarioPath := flag.String("scenario", "", "scenario file (.cfg, .json, .yaml); empty uses the built-in scene")
	prefsPath := flag.String("prefs", viewer.DefaultPrefsPath, "viewer preferences file")
	assetDir := flag.String("assets", ".", "directory mesh paths are relative to")
	useGPU := flag.Bool("gpu", false, "run the broad-phase on the GPU for large worlds")
	interval := flag.Duration("interval", 2*time.Millisecond, "pause between physics steps, 0 runs flat out")
	flag.Parse()

	def := scenario.Default()
	if *scenarioPath != "" {
		var err error
		def, err = scenario.Load(*scenarioPath)
		if err != nil {
			log.Fatalf("Scenario: %v", err)
		}
	}

	loader := assets.NewLoader(os.DirFS(*assetDir))
	reg := physics.NewMeshRegistry()
	defer reg.Close()

	bodies, err := scenario.Build(def, loader, reg)
	if err != nil {
		log.Fatalf("Scenario: %v", err)
	}
	log.Printf("Scenario: %d bodies, gravity %.2f, elasticity %.2f", len(bodies), def.Gravity, def.Elasticity)

	cfg := def.Config()
	cfg.StepInterval = *interval
	world := physics.NewWorld(cfg, bodies)
	if *useGPU {
		if pf := gpuPairFinder(); pf != nil {
			world.PairFinder = pf
			defer pf.Release()
		}
	}

	prefs, err := viewer.LoadPrefs(*prefsPath)
	if err != nil {
		log.Printf("Viewer: %v, using defaults", err)
		prefs = viewer.DefaultPrefs()
	}
	v := viewer.New(world, loader, reg, prefs)
	v.PrefsPath = *prefsPath
	for _, o := range def.Objects {
		if strings.HasPrefix(o.Mesh, assets.BuiltinPrefix) {
			continue
		}
		if a, err := loader.Load(o.Mesh); err == nil && a.Material != nil {
			v.Renderer.SetMeshColor(o.Mesh, a.Material.Diffuse)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The stepper owns the bodies; the window only reads snapshots
	stepped := make(chan struct{})
	go func() {
		defer close(stepped)
		world.Run(ctx)
	}()

	if err := v.Run(ctx); err != nil {
		log.Printf("Viewer: %v", err)
	}
	stop()
	<-stepped
}
