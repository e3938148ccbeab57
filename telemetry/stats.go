// Package telemetry collects per-generation statistics, timing data and the
// small debug record shown on screen.
package telemetry

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DebugInfo is the on-screen telemetry record.
type DebugInfo struct {
	MaxAvgSpeed      float32
	Generation       int
	TimeSinceLastGen float32
	NextGenTime      float32
	Population       int
	Disabled         int
}

// TimeToNextGen returns the seconds left before the scheduled turnover.
func (d DebugInfo) TimeToNextGen() float32 {
	return d.NextGenTime - d.TimeSinceLastGen
}

// String renders the four-line HUD text.
func (d DebugInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Max Avg Speed: %.2f\n", d.MaxAvgSpeed)
	fmt.Fprintf(&b, "Generation: %d\n", d.Generation)
	fmt.Fprintf(&b, "Time since prev. gen: %.1f\n", d.TimeSinceLastGen)
	fmt.Fprintf(&b, "Time to next gen: %.1f", d.TimeToNextGen())
	return b.String()
}

// LogValue implements slog.LogValuer for structured logging.
func (d DebugInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("max_avg_speed", float64(d.MaxAvgSpeed)),
		slog.Int("generation", d.Generation),
		slog.Float64("time_since_last_gen", float64(d.TimeSinceLastGen)),
		slog.Float64("time_to_next_gen", float64(d.TimeToNextGen())),
		slog.Int("population", d.Population),
		slog.Int("disabled", d.Disabled),
	)
}

// GenerationStats summarises one finished generation.
type GenerationStats struct {
	RunID        string  `csv:"run_id"`
	Generation   int     `csv:"generation"`
	Population   int     `csv:"population"`
	Disabled     int     `csv:"disabled"`
	DurationSec  float64 `csv:"duration_sec"`
	BestTarmac   float64 `csv:"best_tarmac"`
	MeanTarmac   float64 `csv:"mean_tarmac"`
	StdTarmac    float64 `csv:"std_tarmac"`
	P50Tarmac    float64 `csv:"p50_tarmac"`
	P90Tarmac    float64 `csv:"p90_tarmac"`
	MeanGrass    float64 `csv:"mean_grass"`
	BestAvgSpeed float64 `csv:"best_avg_speed"`
}

// ComputeGenerationStats aggregates the odometer readings of a generation.
// tarmac and grass are indexed by car; elapsed is the generation length in
// seconds.
func ComputeGenerationStats(generation int, elapsed float64, tarmac, grass []float64, disabled int) GenerationStats {
	s := GenerationStats{
		Generation:  generation,
		Population:  len(tarmac),
		Disabled:    disabled,
		DurationSec: elapsed,
	}
	if len(tarmac) == 0 {
		return s
	}

	s.BestTarmac = floats.Max(tarmac)
	s.MeanTarmac, s.StdTarmac = stat.PopMeanStdDev(tarmac, nil)

	sorted := make([]float64, len(tarmac))
	copy(sorted, tarmac)
	sort.Float64s(sorted)
	s.P50Tarmac = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90Tarmac = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	if len(grass) > 0 {
		s.MeanGrass = stat.Mean(grass, nil)
	}
	if elapsed > 0 {
		s.BestAvgSpeed = s.BestTarmac / elapsed
	}
	if math.IsNaN(s.StdTarmac) {
		s.StdTarmac = 0
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("disabled", s.Disabled),
		slog.Float64("duration_sec", s.DurationSec),
		slog.Float64("best_tarmac", s.BestTarmac),
		slog.Float64("mean_tarmac", s.MeanTarmac),
		slog.Float64("std_tarmac", s.StdTarmac),
		slog.Float64("p50_tarmac", s.P50Tarmac),
		slog.Float64("p90_tarmac", s.P90Tarmac),
		slog.Float64("mean_grass", s.MeanGrass),
		slog.Float64("best_avg_speed", s.BestAvgSpeed),
	)
}
