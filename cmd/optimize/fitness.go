package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/game"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/storage"
	"github.com/pthm-cable/evodrive/track"
)

// FitnessEvaluator runs headless races and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	population  int
	seeds       []int64
	baseConfig  *config.Config
	track       track.MaterialMap

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestChampion []byte
	lastSpeed    float64 // mean final speed from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. population overrides the
// config's population when positive.
func NewFitnessEvaluator(params *ParamVector, generations, population int, seeds []int64, baseCfg *config.Config, tm track.MaterialMap) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		population:  population,
		seeds:       seeds,
		baseConfig:  baseCfg,
		track:       tm,
		bestFitness: math.Inf(1),
	}
}

// BestChampion returns the encoded controller from the best evaluation.
func (fe *FitnessEvaluator) BestChampion() []byte {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestChampion
}

// LastSpeed returns the mean final speed from the most recent evaluation.
func (fe *FitnessEvaluator) LastSpeed() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSpeed
}

// runResult holds the results from a single race.
type runResult struct {
	speed    float64 // mean best average speed over the scored generations
	champion []byte
	err      error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negative mean best average speed across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var bestSpeed float64 = -1
	var bestChampion []byte
	for _, r := range results {
		if r.err != nil {
			// Invalid parameter combinations score worst.
			return 0
		}
		total += r.speed
		if r.speed > bestSpeed {
			bestSpeed, bestChampion = r.speed, r.champion
		}
	}
	mean := total / float64(len(results))
	fitness := -mean

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestChampion = bestChampion
	}
	fe.lastSpeed = mean
	fe.mu.Unlock()

	return fitness
}

// runSimulation races one seed for the configured number of generations.
// The second half of the generations is scored so that early luck counts
// less than sustained progress.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	store := storage.NewMemoryStore()
	e, err := game.NewEngine(cfg, fe.track, game.Options{Seed: seed, RunID: fmt.Sprintf("opt-%d", seed), Store: store})
	if err != nil {
		return runResult{err: err}
	}
	defer e.Close()
	if err := store.Init(context.Background()); err != nil {
		return runResult{err: err}
	}

	scoreFrom := fe.generations / 2
	var sum float64
	var scored int
	var best float64
	var champion []byte

	for e.Generation() < fe.generations {
		gen := e.Generation()
		e.Step()
		if e.Generation() == gen {
			continue
		}
		stats := e.LastGeneration()
		if gen >= scoreFrom {
			sum += stats.BestAvgSpeed
			scored++
		}
		if stats.BestAvgSpeed > best {
			best = stats.BestAvgSpeed
			if c, ok, _ := store.LatestChampion(context.Background(), e.RunID()); ok {
				champion = c.Network
			}
		}
	}
	if scored == 0 {
		return runResult{champion: champion}
	}
	return runResult{speed: sum / float64(scored), champion: champion}
}

// copyConfig returns a deep copy of the base config with the evaluator's
// population override applied.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Neural.HiddenLayers = append([]int(nil), fe.baseConfig.Neural.HiddenLayers...)
	cfg.Sensors.Angles = append([]float64(nil), fe.baseConfig.Sensors.Angles...)
	if fe.population > 0 {
		cfg.Evolution.Population = fe.population
	}
	cfg.ComputeDerived()
	return &cfg
}

// decodeChampion checks that a stored blob is a valid controller.
func decodeChampion(blob []byte) (*neural.Network, error) {
	if len(blob) == 0 {
		return nil, errors.New("no champion recorded")
	}
	return neural.Decode(blob)
}
