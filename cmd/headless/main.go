// Command headless runs a scenario without a window, logging step statistics
// and optionally streaming snapshots over a websocket.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"rigidsim/internal/assets"
	"rigidsim/internal/compute"
	"rigidsim/internal/physics"
	"rigidsim/internal/scenario"
	"rigidsim/internal/transport/ws"
)

type options struct {
	scenario string
	assets   string
	steps    int
	dtMs     float64
	duration time.Duration
	interval time.Duration
	csv      string
	listen   string
	gpu      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.scenario, "scenario", "", "scenario file (.cfg, .json, .yaml); empty uses the built-in scene")
	flag.StringVar(&opts.assets, "assets", ".", "directory mesh paths are relative to")
	flag.IntVar(&opts.steps, "steps", 600, "fixed steps to run when -duration is zero")
	flag.Float64Var(&opts.dtMs, "dt", 16, "milliseconds simulated per fixed step")
	flag.DurationVar(&opts.duration, "duration", 0, "run against the wall clock for this long instead of fixed steps")
	flag.DurationVar(&opts.interval, "interval", 0, "pause between wall-clock steps")
	flag.StringVar(&opts.csv, "csv", "logs/simTimes.csv", "sampled step times output, empty to skip")
	flag.StringVar(&opts.listen, "listen", "", "serve /snapshots and /stats on this address, e.g. :8080")
	flag.BoolVar(&opts.gpu, "gpu", false, "run the broad-phase on the GPU for large worlds")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, log.Default()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, logger *log.Logger) error {
	def := scenario.Default()
	if opts.scenario != "" {
		var err error
		if def, err = scenario.Load(opts.scenario); err != nil {
			return err
		}
	}

	reg := physics.NewMeshRegistry()
	defer reg.Close()
	bodies, err := scenario.Build(def, assets.NewLoader(os.DirFS(opts.assets)), reg)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	cfg := def.Config()
	cfg.StepInterval = opts.interval
	world := physics.NewWorld(cfg, bodies)
	world.Logger = logger
	if opts.gpu {
		if pf := gpuPairFinder(logger); pf != nil {
			pf.Logger = logger
			world.PairFinder = pf
			defer pf.Release()
		}
	}
	logger.Printf("Scenario: %d bodies, gravity %.2f, elasticity %.2f", len(bodies), def.Gravity, def.Elasticity)

	if opts.listen != "" {
		srv := ws.NewServer(world)
		srv.Logger = logger
		httpSrv := &http.Server{Addr: opts.listen, Handler: srv.Handler()}
		go func() {
			logger.Printf("Stream: listening on %s", opts.listen)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Stream: %v", err)
			}
		}()
		defer func() {
			srv.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	start := time.Now()
	var last physics.StepStats
	if opts.duration > 0 {
		runCtx, cancel := context.WithTimeout(ctx, opts.duration)
		world.Run(runCtx)
		cancel()
		last = world.Snapshot().Stats
	} else {
		for i := 0; i < opts.steps && ctx.Err() == nil; i++ {
			last = world.StepFor(opts.dtMs)
		}
	}

	snap := world.Snapshot()
	logger.Printf("Physics: %d steps, %.2fs simulated in %v, last step %d pairs %d contacts",
		snap.Step, snap.SimTimeMs/1000, time.Since(start).Round(time.Millisecond), last.Pairs, last.Contacts)
	for _, b := range snap.Bodies {
		logger.Printf("Physics: %-12s pos (%.3f, %.3f, %.3f) vel (%.3f, %.3f, %.3f)", b.Name,
			b.Position[0], b.Position[1], b.Position[2], b.Velocity[0], b.Velocity[1], b.Velocity[2])
	}

	if opts.csv != "" {
		if err := saveSimTimes(opts.csv, world.SimTimes()); err != nil {
			return err
		}
		logger.Printf("Physics: wrote %d step times to %s", len(world.SimTimes()), opts.csv)
	}
	return nil
}

func saveSimTimes(path string, times []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sim times: %w", err)
	}
	if err := writeSimTimes(f, times); err != nil {
		f.Close()
		return fmt.Errorf("write sim times: %w", err)
	}
	return f.Close()
}

// writeSimTimes writes every sample followed by a comma, on one line.
func writeSimTimes(w io.Writer, times []float64) error {
	bw := bufio.NewWriter(w)
	for _, t := range times {
		bw.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		bw.WriteByte(',')
	}
	return bw.Flush()
}

func gpuPairFinder(logger *log.Logger) *compute.PairFinder {
	info, err := compute.Initialize()
	if err != nil {
		logger.Printf("Physics: no GPU, using CPU broad-phase: %v", err)
		return nil
	}
	logger.Printf("Physics: GPU %s", info)

	const maxBodies = 8192
	bp, err := compute.NewBroadPhase(maxBodies, maxBodies*16)
	if err != nil {
		logger.Printf("Physics: GPU broad-phase unavailable: %v", err)
		return nil
	}
	return compute.NewPairFinder(bp)
}
