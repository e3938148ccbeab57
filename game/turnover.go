package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/systems"
	"github.com/pthm-cable/evodrive/telemetry"
)

// Turnover ends the current generation: the best cars by tarmac distance are
// kept, reset to the start line and each cloned into mutated children. Every
// other car is discarded. The new population lists all children first, then
// the parents.
func (e *Engine) Turnover() {
	e.phase = Evaluating
	cfg := e.cfg

	// Stable sort keeps population order for equal distances.
	ranked := make([]ecs.Entity, len(e.cars))
	copy(ranked, e.cars)
	tarmac := make(map[ecs.Entity]float32, len(ranked))
	for _, entity := range ranked {
		_, _, _, _, _, odo, _ := e.carMapper.Get(entity)
		tarmac[entity] = odo.Tarmac
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return tarmac[ranked[i]] > tarmac[ranked[j]]
	})

	if e.elapsed > 0 {
		e.maxAvgSpeed = tarmac[ranked[0]] / e.elapsed
	}
	e.recordGeneration()
	e.saveChampion(context.Background(), ranked[0])

	nSel := min(cfg.Evolution.Selected, len(ranked))
	parents := ranked[:nSel]
	losers := ranked[nSel:]

	e.phase = Reproducing
	childrenPer := cfg.Evolution.Population / nSel
	scale := float32(cfg.Evolution.MutationScale)
	next := make([]ecs.Entity, 0, nSel*childrenPer+nSel)

	for _, entity := range parents {
		e.resetCar(entity)
		_, _, _, _, _, _, driver := e.carMapper.Get(entity)
		driver.WasSelected = true

		brain := e.brains[driver.ID]
		colour := driver.Colour
		for k := 0; k < childrenPer; k++ {
			child := brain.CloneWithMutation(e.rng, scale)
			next = append(next, e.spawnCar(child, e.jitterColour(colour), false))
		}
	}
	next = append(next, parents...)

	for _, entity := range losers {
		e.removeCar(entity)
	}

	e.cars = next
	e.generation++
	e.elapsed = 0
	e.disabled = 0
	e.phase = Racing
}

// recordGeneration computes, logs and writes the stats of the ending generation.
func (e *Engine) recordGeneration() {
	tarmac := make([]float64, len(e.cars))
	grass := make([]float64, len(e.cars))
	disabled := 0
	for i, entity := range e.cars {
		_, _, _, _, _, odo, driver := e.carMapper.Get(entity)
		tarmac[i] = float64(odo.Tarmac)
		grass[i] = float64(odo.Grass)
		if driver.Disabled {
			disabled++
		}
	}

	stats := telemetry.ComputeGenerationStats(e.generation, float64(e.elapsed), tarmac, grass, disabled)
	stats.RunID = e.runID
	e.lastGen = stats
	e.logGeneration(stats)

	if err := e.output.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
	if err := e.output.WritePerf(e.perf.Stats(), e.tick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// ErrShapeMismatch is returned when a network's input or output layer does
// not fit the configured sensors and controls.
var ErrShapeMismatch = errors.New("game: network shape does not match config")

// SeedFrom replaces the population with copies of net: one exact copy and
// population-1 mutated clones. The generation counter is left unchanged.
// A net with the wrong input or output width is rejected and the current
// population is kept.
func (e *Engine) SeedFrom(net *neural.Network) error {
	sizes := net.Sizes()
	if sizes[0] != e.cfg.Neural.Inputs || sizes[len(sizes)-1] != e.cfg.Neural.Outputs {
		return fmt.Errorf("%w: layers %v, want %d inputs and %d outputs",
			ErrShapeMismatch, sizes, e.cfg.Neural.Inputs, e.cfg.Neural.Outputs)
	}

	for _, entity := range e.cars {
		e.removeCar(entity)
	}
	e.cars = e.cars[:0]

	colour := e.randomColour()
	scale := float32(e.cfg.Evolution.MutationScale)
	e.cars = append(e.cars, e.spawnCar(net.Clone(), colour, true))
	for i := 1; i < e.cfg.Evolution.Population; i++ {
		e.cars = append(e.cars, e.spawnCar(net.CloneWithMutation(e.rng, scale), e.jitterColour(colour), false))
	}
	e.elapsed = 0
	e.disabled = 0
	slog.Info("population_seeded", "run_id", e.runID, "population", len(e.cars))
	return nil
}

// spawnCar creates a car on the start line driven by net.
func (e *Engine) spawnCar(net *neural.Network, colour [3]uint8, wasSelected bool) ecs.Entity {
	id := e.nextID
	e.nextID++

	pos, vel, rot, forces, odo := e.startState()
	body := components.Body{
		Width:          float32(e.cfg.Car.Width),
		Height:         float32(e.cfg.Car.Height),
		Mass:           float32(e.cfg.Car.Mass),
		MaxEngineForce: float32(e.cfg.Car.MaxEngineForce),
	}
	driver := components.Driver{
		ID:          id,
		Colour:      colour,
		Sensors:     make([]float32, e.cfg.Neural.Inputs),
		WasSelected: wasSelected,
	}

	entity := e.carMapper.NewEntity(&pos, &vel, &rot, &body, &forces, &odo, &driver)
	e.brains[id] = net
	return entity
}

// resetCar puts a surviving car back on the start line with fresh odometers.
func (e *Engine) resetCar(entity ecs.Entity) {
	pos, vel, rot, _, forces, odo, driver := e.carMapper.Get(entity)
	*pos, *vel, *rot, *forces, *odo = e.startState()
	driver.Disabled = false
	driver.Controls = components.Controls{}
	driver.BlendAngle = 0
	for i := range driver.Sensors {
		driver.Sensors[i] = 0
	}
}

func (e *Engine) startState() (components.Position, components.Velocity, components.Rotation, components.Forces, components.Odometer) {
	return components.Position{X: float32(e.cfg.World.StartX), Y: float32(e.cfg.World.StartY)},
		components.Velocity{},
		components.Rotation{Heading: systems.NormalizeRotation(float32(e.cfg.World.StartRotation))},
		components.Forces{},
		components.Odometer{}
}

func (e *Engine) removeCar(entity ecs.Entity) {
	_, _, _, _, _, _, driver := e.carMapper.Get(entity)
	delete(e.brains, driver.ID)
	e.world.RemoveEntity(entity)
}

func (e *Engine) randomColour() [3]uint8 {
	return [3]uint8{uint8(e.rng.Intn(256)), uint8(e.rng.Intn(256)), uint8(e.rng.Intn(256))}
}

// jitterColour shifts every channel by up to colour_jitter, wrapping at 256.
func (e *Engine) jitterColour(c [3]uint8) [3]uint8 {
	j := e.cfg.Evolution.ColourJitter
	if j <= 0 {
		return c
	}
	for i := range c {
		c[i] = uint8(int(c[i]) + e.rng.Intn(2*j+1) - j)
	}
	return c
}
