package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/game"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/storage"
	"github.com/pthm-cable/evodrive/telemetry"
	"github.com/pthm-cable/evodrive/track"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Log perf stats at every generation")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call")
	runID := flag.String("run-id", "", "Run id for archived champions (empty = random)")
	dbPath := flag.String("db", "", "SQLite champion archive (overrides storage config)")
	loadChampion := flag.Bool("load-champion", false, "Seed the population from the latest archived champion")
	championRun := flag.String("champion-run", "", "Run to load the champion from (empty = most recent of any run)")
	championFile := flag.String("champion-file", "", "Seed the population from a controller file (e.g. cmd/optimize's champion.evnn)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *dbPath != "" {
		cfg.Storage.Backend = "sqlite"
		cfg.Storage.Path = *dbPath
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	raster, err := track.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to build track", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to create champion store", "error", err)
		os.Exit(1)
	}
	if err := store.Init(ctx); err != nil {
		slog.Error("failed to open champion store", "error", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer storage.CloseIfSupported(store)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	engine, err := game.NewEngine(cfg, raster, game.Options{
		Seed:     rngSeed,
		RunID:    *runID,
		Store:    store,
		Output:   output,
		LogStats: *logStats,
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	switch {
	case *championFile != "":
		net, err := neural.ReadFile(*championFile)
		if err == nil {
			err = engine.SeedFrom(net)
		}
		if err != nil {
			slog.Error("failed to load champion file", "error", err, "path", *championFile)
			os.Exit(1)
		}
	case *loadChampion:
		if err := seedFromChampion(ctx, engine, store, *championRun); err != nil {
			slog.Error("failed to load champion", "error", err)
			os.Exit(1)
		}
	}

	limits := runLimits{maxTicks: int64(*maxTicks), maxGenerations: *maxGenerations}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"run_id", engine.RunID(),
			"max_ticks", *maxTicks,
			"max_generations", *maxGenerations,
			"steps_per_update", *stepsPerUpdate,
		)
		runHeadless(engine, max(*stepsPerUpdate, 1), limits)
		return
	}

	runGraphical(cfg, engine, raster, store, max(*stepsPerUpdate, 1), limits)
}

// runLimits stops a run early. Zero values mean unlimited.
type runLimits struct {
	maxTicks       int64
	maxGenerations int
}

func (l runLimits) reached(e *game.Engine) bool {
	if l.maxTicks > 0 && e.Tick() >= l.maxTicks {
		return true
	}
	return l.maxGenerations > 0 && e.Generation() >= l.maxGenerations
}

// runHeadless steps the engine as fast as possible until a limit is reached.
func runHeadless(e *game.Engine, steps int, limits runLimits) {
	start := time.Now()
	for !limits.reached(e) {
		for i := 0; i < steps && !limits.reached(e); i++ {
			e.Step()
		}
	}
	slog.Info("run finished",
		"run_id", e.RunID(),
		"ticks", humanize.Comma(e.Tick()),
		"generations", e.Generation(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"last_generation", e.LastGeneration(),
	)
}

// seedFromChampion replaces the initial population with clones of the most
// recent archived champion.
func seedFromChampion(ctx context.Context, e *game.Engine, store storage.Store, runID string) error {
	champ, ok, err := store.LatestChampion(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("no archived champion, starting from random controllers", "run_id", runID)
		return nil
	}
	net, err := neural.Decode(champ.Network)
	if err != nil {
		return err
	}
	if err := e.SeedFrom(net); err != nil {
		return err
	}
	slog.Info("seeded from champion",
		"from_run", champ.RunID,
		"generation", champ.Generation,
		"car", champ.CarID,
		"avg_speed", champ.AvgSpeed,
	)
	return nil
}
