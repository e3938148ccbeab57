// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Track     TrackConfig     `yaml:"track"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Car       CarConfig       `yaml:"car"`
	Neural    NeuralConfig    `yaml:"neural"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the playable area and the starting grid.
// Cars are clamped into [0, Width] x [0, Height].
type WorldConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	StartX        float64 `yaml:"start_x"`
	StartY        float64 `yaml:"start_y"`
	StartRotation float64 `yaml:"start_rotation"` // radians
}

// TrackConfig describes where the material raster comes from.
// An empty Image selects the procedural oval.
type TrackConfig struct {
	Image        string  `yaml:"image"`
	RasterWidth  int     `yaml:"raster_width"`
	RasterHeight int     `yaml:"raster_height"`
	TarmacRed    uint8   `yaml:"tarmac_red"` // red channel value that marks tarmac pixels
	CenterX      float64 `yaml:"center_x"`
	CenterY      float64 `yaml:"center_y"`
	OuterRadiusX float64 `yaml:"outer_radius_x"`
	OuterRadiusY float64 `yaml:"outer_radius_y"`
	InnerRadiusX float64 `yaml:"inner_radius_x"`
	InnerRadiusY float64 `yaml:"inner_radius_y"`
	NoiseSeed    int64   `yaml:"noise_seed"`
	NoiseScale   float64 `yaml:"noise_scale"`  // frequency of edge wobble around the loop
	NoiseAmount  float64 `yaml:"noise_amount"` // wobble amplitude as a fraction of the radius
}

// PhysicsConfig holds the hand-tuned vehicle dynamics constants.
type PhysicsConfig struct {
	DT                   float64 `yaml:"dt"`
	Gravity              float64 `yaml:"gravity"`
	SteerTorque          float64 `yaml:"steer_torque"`
	SteerReferenceSpeed  float64 `yaml:"steer_reference_speed"` // full steering at or above this speed
	AngularDragQuadratic float64 `yaml:"angular_drag_quadratic"`
	AngularDragLinear    float64 `yaml:"angular_drag_linear"`
	BrakeForce           float64 `yaml:"brake_force"`
	RollingDivisor       float64 `yaml:"rolling_divisor"`
	AirDragCoefficient   float64 `yaml:"air_drag_coefficient"` // multiplied by speed^2 and material multiplier
	MinBlendSpeedSq      float64 `yaml:"min_blend_speed_sq"`
	RotationMix          float64 `yaml:"rotation_mix"` // blend weight is rotation_mix / dt
}

// CarConfig holds per-car body parameters.
type CarConfig struct {
	Mass               float64 `yaml:"mass"`
	Width              float64 `yaml:"width"`
	Height             float64 `yaml:"height"`
	MaxEngineForce     float64 `yaml:"max_engine_force"`
	NominalEngineForce float64 `yaml:"nominal_engine_force"` // scaled by the throttle output
}

// NeuralConfig holds controller network parameters.
type NeuralConfig struct {
	Inputs            int     `yaml:"inputs"`
	HiddenLayers      []int   `yaml:"hidden_layers"`
	Outputs           int     `yaml:"outputs"`
	DecisionThreshold float64 `yaml:"decision_threshold"`
	ThrottleOffset    float64 `yaml:"throttle_offset"` // throttle = min(max(out-offset, 0)+lift, 1) - offset
	ThrottleLift      float64 `yaml:"throttle_lift"`
}

// EvolutionConfig holds generational selection parameters.
type EvolutionConfig struct {
	Population        int     `yaml:"population"`
	Selected          int     `yaml:"selected"`
	BaseGenerationSec float64 `yaml:"base_generation_sec"`
	PerGenerationSec  float64 `yaml:"per_generation_sec"`
	MutationScale     float64 `yaml:"mutation_scale"`
	GrassLeniency     float64 `yaml:"grass_leniency"` // disabled when tarmac < grass * leniency
	ColourJitter      int     `yaml:"colour_jitter"`
}

// SensorsConfig holds ray sensor parameters.
type SensorsConfig struct {
	Angles      []float64 `yaml:"angles"` // offsets from heading, in units of pi
	Step        float64   `yaml:"step"`
	MaxDistance float64   `yaml:"max_distance"` // 0 = march until off-track
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"`
}

// StorageConfig selects the champion archive backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	Path    string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32   // Physics.DT as float32
	WorldW32     float32   // World.Width as float32
	WorldH32     float32   // World.Height as float32
	SensorAngles []float32 // sensor offsets in radians
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// Validate checks the values the simulation core relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT))
	}
	if c.Car.Mass <= 0 {
		errs = append(errs, fmt.Errorf("car.mass must be positive, got %v", c.Car.Mass))
	}
	if c.Neural.Inputs <= 0 || c.Neural.Outputs <= 0 {
		errs = append(errs, errors.New("neural inputs and outputs must be positive"))
	}
	if c.Neural.Outputs != 4 {
		errs = append(errs, fmt.Errorf("neural.outputs must be 4 (left, right, throttle, brake), got %d", c.Neural.Outputs))
	}
	if len(c.Neural.HiddenLayers) == 0 {
		errs = append(errs, errors.New("neural.hidden_layers needs at least one layer"))
	}
	for i, w := range c.Neural.HiddenLayers {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("neural.hidden_layers[%d] must be positive, got %d", i, w))
		}
	}
	if len(c.Sensors.Angles) != c.Neural.Inputs {
		errs = append(errs, fmt.Errorf("sensors.angles has %d entries, neural.inputs is %d", len(c.Sensors.Angles), c.Neural.Inputs))
	}
	if c.Sensors.Step <= 0 {
		errs = append(errs, fmt.Errorf("sensors.step must be positive, got %v", c.Sensors.Step))
	}
	if c.Evolution.Population <= 0 {
		errs = append(errs, fmt.Errorf("evolution.population must be positive, got %d", c.Evolution.Population))
	}
	if c.Evolution.Selected <= 0 {
		errs = append(errs, fmt.Errorf("evolution.selected must be positive, got %d", c.Evolution.Selected))
	}
	if c.Track.RasterWidth <= 0 || c.Track.RasterHeight <= 0 {
		errs = append(errs, fmt.Errorf("track raster size must be positive, got %dx%d", c.Track.RasterWidth, c.Track.RasterHeight))
	}
	return errors.Join(errs...)
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after changing fields in code.
func (c *Config) ComputeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)

	c.Derived.SensorAngles = make([]float32, len(c.Sensors.Angles))
	for i, a := range c.Sensors.Angles {
		c.Derived.SensorAngles[i] = float32(a * math.Pi)
	}
}

// GenerationLength returns how long generation g races before turnover.
func (c *Config) GenerationLength(generation int) float32 {
	return float32(c.Evolution.BaseGenerationSec + c.Evolution.PerGenerationSec*float64(generation))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
