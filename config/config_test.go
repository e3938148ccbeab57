package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evolution.Population != 1000 || cfg.Evolution.Selected != 40 {
		t.Errorf("population/selected = %d/%d, want 1000/40", cfg.Evolution.Population, cfg.Evolution.Selected)
	}
	if cfg.Derived.DT32 != float32(0.064) {
		t.Errorf("DT32 = %v", cfg.Derived.DT32)
	}
	if len(cfg.Derived.SensorAngles) != cfg.Neural.Inputs {
		t.Fatalf("sensor angles = %d, want %d", len(cfg.Derived.SensorAngles), cfg.Neural.Inputs)
	}
	if got := cfg.Derived.SensorAngles[1]; math.Abs(float64(got)-math.Pi/4) > 1e-6 {
		t.Errorf("second sensor angle = %v, want pi/4", got)
	}
}

func TestOverlayOnlyReplacesNamedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := "evolution:\n  population: 200\nneural:\n  hidden_layers: [6, 3]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evolution.Population != 200 {
		t.Errorf("population = %d, want 200", cfg.Evolution.Population)
	}
	if cfg.Evolution.Selected != 40 {
		t.Errorf("selected = %d, want default 40", cfg.Evolution.Selected)
	}
	if len(cfg.Neural.HiddenLayers) != 2 || cfg.Neural.HiddenLayers[0] != 6 {
		t.Errorf("hidden layers = %v, want [6 3]", cfg.Neural.HiddenLayers)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Physics.DT = 0
	cfg.Evolution.Selected = 0
	cfg.Neural.HiddenLayers = []int{4, 0}
	cfg.Sensors.Step = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"physics.dt", "evolution.selected", "hidden_layers[1]", "sensors.step"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestGenerationLength(t *testing.T) {
	cfg := Default()
	tests := []struct {
		generation int
		want       float32
	}{
		{0, 30},
		{1, 35},
		{10, 80},
	}
	for _, tt := range tests {
		if got := cfg.GenerationLength(tt.generation); got != tt.want {
			t.Errorf("GenerationLength(%d) = %v, want %v", tt.generation, got, tt.want)
		}
	}
}

func TestWriteYAMLLoadsBack(t *testing.T) {
	cfg := Default()
	cfg.Evolution.MutationScale = 1.25
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Evolution.MutationScale != 1.25 {
		t.Errorf("mutation scale = %v, want 1.25", back.Evolution.MutationScale)
	}
}
