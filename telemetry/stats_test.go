package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/evodrive/config"
)

func TestComputeGenerationStats(t *testing.T) {
	tarmac := []float64{10, 40, 20, 30}
	grass := []float64{1, 2, 3, 6}

	s := ComputeGenerationStats(3, 10, tarmac, grass, 1)

	if s.Generation != 3 || s.Population != 4 || s.Disabled != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.BestTarmac != 40 {
		t.Errorf("best = %v, want 40", s.BestTarmac)
	}
	if s.MeanTarmac != 25 {
		t.Errorf("mean = %v, want 25", s.MeanTarmac)
	}
	if want := math.Sqrt(125); math.Abs(s.StdTarmac-want) > 1e-9 {
		t.Errorf("std = %v, want %v", s.StdTarmac, want)
	}
	if s.P50Tarmac != 20 || s.P90Tarmac != 40 {
		t.Errorf("quantiles = %v/%v, want 20/40", s.P50Tarmac, s.P90Tarmac)
	}
	if s.MeanGrass != 3 {
		t.Errorf("mean grass = %v, want 3", s.MeanGrass)
	}
	if s.BestAvgSpeed != 4 {
		t.Errorf("best avg speed = %v, want 4", s.BestAvgSpeed)
	}
	if tarmac[0] != 10 {
		t.Error("input slice was reordered")
	}
}

func TestComputeGenerationStatsEmpty(t *testing.T) {
	s := ComputeGenerationStats(0, 0, nil, nil, 0)
	if s.Population != 0 || s.BestTarmac != 0 || s.BestAvgSpeed != 0 {
		t.Errorf("expected zero stats, got %+v", s)
	}
}

func TestDebugInfoString(t *testing.T) {
	d := DebugInfo{MaxAvgSpeed: 12.345, Generation: 2, TimeSinceLastGen: 4.26, NextGenTime: 40}
	want := "Max Avg Speed: 12.35\nGeneration: 2\nTime since prev. gen: 4.3\nTime to next gen: 35.7"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestOutputManagerNilIsNoop(t *testing.T) {
	var om *OutputManager
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}

	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Errorf("empty dir should disable output, got %v, %v", om, err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for g := 0; g < 3; g++ {
		s := ComputeGenerationStats(g, 30, []float64{1, 2, 3}, []float64{0, 0, 0}, 0)
		s.RunID = "test-run"
		if err := om.WriteGeneration(s); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "run_id,generation,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "test-run,2,") {
		t.Errorf("unexpected last row %q", lines[3])
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not reload: %v", err)
	}
}
