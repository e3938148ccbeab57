// Package game runs the evolutionary race: the car population, the per-tick
// update and the generational turnover.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/storage"
	"github.com/pthm-cable/evodrive/systems"
	"github.com/pthm-cable/evodrive/telemetry"
	"github.com/pthm-cable/evodrive/track"
)

// Phase is the engine's position in the generation cycle.
type Phase uint8

const (
	Racing Phase = iota
	Evaluating
	Reproducing
)

func (p Phase) String() string {
	switch p {
	case Racing:
		return "racing"
	case Evaluating:
		return "evaluating"
	case Reproducing:
		return "reproducing"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Options configures an Engine beyond the config file.
type Options struct {
	Seed     int64
	RunID    string                   // empty generates a random id
	Store    storage.Store            // optional champion archive, already initialized
	Output   *telemetry.OutputManager // optional CSV output
	LogStats bool                     // log perf stats at every turnover
}

// Engine owns the population and advances it one tick at a time. It is not
// safe for concurrent use; Step fans work out internally.
type Engine struct {
	cfg     *config.Config
	track   track.MaterialMap
	physics *systems.Physics
	sensors systems.SensorArray
	driver  systems.NeuralDriver
	rng     *rand.Rand
	runID   string

	world     *ecs.World
	carMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Forces,
		components.Odometer,
		components.Driver,
	]

	// Population in stable order. Turnover sorts this slice, so its order
	// decides ties.
	cars   []ecs.Entity
	brains map[uint32]*neural.Network
	nextID uint32

	phase       Phase
	generation  int
	elapsed     float32
	maxAvgSpeed float32
	disabled    int
	tick        int64

	parallel *parallelState
	perf     *telemetry.PerfCollector
	store    storage.Store
	output   *telemetry.OutputManager
	logStats bool
	lastGen  telemetry.GenerationStats
}

// NewEngine seeds a fresh population of cfg.Evolution.Population random cars.
func NewEngine(cfg *config.Config, tm track.MaterialMap, opts Options) (*Engine, error) {
	if cfg == nil || tm == nil {
		return nil, errors.New("game: config and track are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	world := ecs.NewWorld()
	e := &Engine{
		cfg:     cfg,
		track:   tm,
		physics: systems.NewPhysics(cfg),
		sensors: systems.NewSensorArray(cfg),
		driver:  systems.NewNeuralDriver(nil, cfg),
		rng:     rand.New(rand.NewSource(opts.Seed)),
		runID:   runID,
		world:   world,
		carMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Forces,
			components.Odometer,
			components.Driver,
		](world),
		brains:   make(map[uint32]*neural.Network),
		parallel: newParallelState(),
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		store:    opts.Store,
		output:   opts.Output,
		logStats: opts.LogStats,
	}

	var params int
	for i := 0; i < cfg.Evolution.Population; i++ {
		net, err := neural.New(cfg.Neural.Inputs, cfg.Neural.HiddenLayers, cfg.Neural.Outputs, e.rng)
		if err != nil {
			return nil, fmt.Errorf("game: building controller: %w", err)
		}
		params = net.Params()
		e.cars = append(e.cars, e.spawnCar(net, e.randomColour(), false))
	}

	slog.Info("engine_ready",
		"run_id", runID,
		"population", len(e.cars),
		"params_per_car", params,
		"seed", opts.Seed,
	)
	return e, nil
}

// Step advances the simulation by one tick of physics.dt seconds. When the
// generation's time is up, or every car is disabled, the tick performs the
// turnover instead of physics.
func (e *Engine) Step() {
	e.perf.StartTick()
	e.phase = Racing

	e.perf.StartPhase(telemetry.PhaseSnapshot)
	e.takeSnapshots()

	e.perf.StartPhase(telemetry.PhaseSensors)
	e.run(stageSense)

	e.perf.StartPhase(telemetry.PhaseDisable)
	allDisabled := e.disableStragglers()

	e.elapsed += e.cfg.Derived.DT32
	if e.elapsed > e.cfg.GenerationLength(e.generation) || allDisabled {
		e.perf.StartPhase(telemetry.PhaseApply)
		e.applySnapshots()
		e.perf.StartPhase(telemetry.PhaseTurnover)
		e.Turnover()
	} else {
		e.perf.StartPhase(telemetry.PhasePhysics)
		e.run(stagePhysics)
		e.perf.StartPhase(telemetry.PhaseApply)
		e.applySnapshots()
	}

	e.tick++
	e.perf.EndTick()
}

// takeSnapshots copies every car out of the ECS in population order.
func (e *Engine) takeSnapshots() {
	snaps := e.parallel.snapshots[:0]
	for _, entity := range e.cars {
		pos, vel, rot, body, forces, odo, driver := e.carMapper.Get(entity)
		snaps = append(snaps, carSnapshot{
			Entity: entity,
			Brain:  e.brains[driver.ID],
			Pos:    *pos,
			Vel:    *vel,
			Rot:    *rot,
			Body:   *body,
			Forces: *forces,
			Odo:    *odo,
			Driver: *driver,
		})
	}
	e.parallel.snapshots = snaps
}

// disableStragglers disables cars that spent too long on the grass and
// reports whether no car is left racing.
func (e *Engine) disableStragglers() bool {
	leniency := float32(e.cfg.Evolution.GrassLeniency)
	e.disabled = 0
	for i := range e.parallel.snapshots {
		s := &e.parallel.snapshots[i]
		if !s.Driver.Disabled && systems.ShouldDisable(s.Odo.Tarmac, s.Odo.Grass, leniency) {
			s.Driver.Disabled = true
			s.Driver.Controls = components.Controls{}
			s.Vel = components.Velocity{}
		}
		if s.Driver.Disabled {
			e.disabled++
		}
	}
	return e.disabled == len(e.parallel.snapshots)
}

// applySnapshots writes working copies back into the ECS.
func (e *Engine) applySnapshots() {
	for i := range e.parallel.snapshots {
		s := &e.parallel.snapshots[i]
		pos, vel, rot, body, forces, odo, driver := e.carMapper.Get(s.Entity)
		*pos, *vel, *rot, *body = s.Pos, s.Vel, s.Rot, s.Body
		*forces, *odo, *driver = s.Forces, s.Odo, s.Driver
	}
}

// Info returns the on-screen telemetry record.
func (e *Engine) Info() telemetry.DebugInfo {
	return telemetry.DebugInfo{
		MaxAvgSpeed:      e.maxAvgSpeed,
		Generation:       e.generation,
		TimeSinceLastGen: e.elapsed,
		NextGenTime:      e.cfg.GenerationLength(e.generation),
		Population:       len(e.cars),
		Disabled:         e.disabled,
	}
}

// Phase returns where the engine is in the generation cycle.
func (e *Engine) Phase() Phase { return e.phase }

// Generation returns the current generation index, starting at 0.
func (e *Engine) Generation() int { return e.generation }

// Tick returns the number of ticks stepped so far.
func (e *Engine) Tick() int64 { return e.tick }

// RunID identifies this run in the champion archive.
func (e *Engine) RunID() string { return e.runID }

// Population returns the current number of cars.
func (e *Engine) Population() int { return len(e.cars) }

// LastGeneration returns the stats of the most recent turnover.
func (e *Engine) LastGeneration() telemetry.GenerationStats { return e.lastGen }

// Perf returns the rolling timing statistics.
func (e *Engine) Perf() telemetry.PerfStats { return e.perf.Stats() }

// RecordFrame feeds frame timing from the graphical loop.
func (e *Engine) RecordFrame() { e.perf.RecordFrame() }

// Close stops the worker pool. The engine must not be stepped afterwards.
func (e *Engine) Close() {
	e.parallel.stopWorkers()
}

// saveChampion archives the controller of the best car, if a store is set.
func (e *Engine) saveChampion(ctx context.Context, entity ecs.Entity) {
	if e.store == nil {
		return
	}
	_, _, _, _, _, odo, driver := e.carMapper.Get(entity)
	blob, err := e.brains[driver.ID].MarshalBinary()
	if err != nil {
		slog.Error("failed to encode champion", "error", err)
		return
	}
	err = e.store.SaveChampion(ctx, storage.Champion{
		RunID:      e.runID,
		Generation: e.generation,
		CarID:      driver.ID,
		Tarmac:     float64(odo.Tarmac),
		AvgSpeed:   float64(e.maxAvgSpeed),
		Network:    blob,
	})
	if err != nil {
		slog.Error("failed to save champion", "error", err, "generation", e.generation)
	}
}
