package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase identifies one timed section of a simulation tick.
type Phase uint8

// Phases in the order they run within a tick. Turnover replaces physics on
// the tick a generation ends.
const (
	PhaseSnapshot Phase = iota
	PhaseSensors
	PhaseDisable
	PhasePhysics
	PhaseApply
	PhaseTurnover
	numPhases
)

var phaseNames = [numPhases]string{"snapshot", "sensors", "disable", "physics", "apply", "turnover"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// PhaseOrder returns every phase in tick order.
func PhaseOrder() []Phase {
	out := make([]Phase, numPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// phaseTimes is the time spent in each phase during one tick.
type phaseTimes [numPhases]time.Duration

// PerfCollector keeps tick and phase timings for the last windowSize ticks.
// It is driven from the simulation goroutine only.
type PerfCollector struct {
	ticks  []time.Duration
	phases []phaseTimes
	next   int
	filled int

	tickStart  time.Time
	phaseStart time.Time
	current    Phase
	inPhase    bool
	pending    phaseTimes

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector returns a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ticks:  make([]time.Duration, windowSize),
		phases: make([]phaseTimes, windowSize),
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.pending = phaseTimes{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.current = ph
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.current < numPhases {
		p.pending[p.current] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the running phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.ticks[p.next] = now.Sub(p.tickStart)
	p.phases[p.next] = p.pending
	p.next = (p.next + 1) % len(p.ticks)
	if p.filled < len(p.ticks) {
		p.filled++
	}
}

// RecordFrame measures the interval since the previous rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStat is one phase's share of the average tick.
type PhaseStat struct {
	Avg time.Duration
	Pct float64
}

// PerfStats summarises the timing window.
type PerfStats struct {
	Samples         int
	AvgTickDuration time.Duration
	P50TickDuration time.Duration
	P99TickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	Phases [numPhases]PhaseStat

	FrameDuration time.Duration
	FPS           float64
}

// Stats summarises the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Samples: p.filled, FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.filled == 0 {
		return s
	}

	// The window is only partly filled until it wraps, so slots [0, filled) are valid.
	ns := make([]float64, p.filled)
	var sums phaseTimes
	for i := 0; i < p.filled; i++ {
		ns[i] = float64(p.ticks[i])
		for ph, d := range p.phases[i] {
			sums[ph] += d
		}
	}
	slices.Sort(ns)

	mean := stat.Mean(ns, nil)
	s.AvgTickDuration = time.Duration(mean)
	s.P50TickDuration = time.Duration(stat.Quantile(0.5, stat.Empirical, ns, nil))
	s.P99TickDuration = time.Duration(stat.Quantile(0.99, stat.Empirical, ns, nil))
	s.MaxTickDuration = time.Duration(ns[len(ns)-1])
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
	}

	for ph, sum := range sums {
		avg := sum / time.Duration(p.filled)
		s.Phases[ph].Avg = avg
		if mean > 0 {
			s.Phases[ph].Pct = float64(avg) / mean * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p50_tick_us", s.P50TickDuration.Microseconds()),
		slog.Int64("p99_tick_us", s.P99TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph, st := range s.Phases {
		if st.Avg > 0 {
			attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", st.Pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	Tick        int64   `csv:"tick"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	P50TickUS   int64   `csv:"p50_tick_us"`
	P99TickUS   int64   `csv:"p99_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	FPS         float64 `csv:"fps"`
	SnapshotPct float64 `csv:"snapshot_pct"`
	SensorsPct  float64 `csv:"sensors_pct"`
	DisablePct  float64 `csv:"disable_pct"`
	PhysicsPct  float64 `csv:"physics_pct"`
	ApplyPct    float64 `csv:"apply_pct"`
	TurnoverPct float64 `csv:"turnover_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(tick int64) PerfStatsCSV {
	return PerfStatsCSV{
		Tick:        tick,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		P50TickUS:   s.P50TickDuration.Microseconds(),
		P99TickUS:   s.P99TickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		FPS:         s.FPS,
		SnapshotPct: s.Phases[PhaseSnapshot].Pct,
		SensorsPct:  s.Phases[PhaseSensors].Pct,
		DisablePct:  s.Phases[PhaseDisable].Pct,
		PhysicsPct:  s.Phases[PhasePhysics].Pct,
		ApplyPct:    s.Phases[PhaseApply].Pct,
		TurnoverPct: s.Phases[PhaseTurnover].Pct,
	}
}
