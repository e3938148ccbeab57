package telemetry

import (
	"testing"
	"time"
)

func runTicks(pc *PerfCollector, n int, sensors, physics time.Duration) {
	for i := 0; i < n; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSensors)
		time.Sleep(sensors)
		pc.StartPhase(PhasePhysics)
		time.Sleep(physics)
		pc.EndTick()
	}
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, 100*time.Microsecond, 200*time.Microsecond)

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("samples = %d, want 5", stats.Samples)
	}
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.Phases[PhaseSensors].Avg <= 0 || stats.Phases[PhasePhysics].Avg <= 0 {
		t.Errorf("sensors and physics should be timed, got %+v", stats.Phases)
	}
	if stats.Phases[PhaseTurnover].Avg != 0 {
		t.Error("turnover never ran")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	runTicks(pc, 10, 0, 0)

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("samples = %d, want window size 5", stats.Samples)
	}
	if stats.AvgTickDuration <= 0 || stats.TicksPerSecond <= 0 {
		t.Errorf("expected positive timings, got %+v", stats)
	}
}

func TestPerfCollector_Quantiles(t *testing.T) {
	pc := NewPerfCollector(20)
	runTicks(pc, 20, 50*time.Microsecond, 50*time.Microsecond)

	s := pc.Stats()
	if s.P50TickDuration > s.P99TickDuration || s.P99TickDuration > s.MaxTickDuration {
		t.Errorf("quantiles out of order: p50 %v p99 %v max %v", s.P50TickDuration, s.P99TickDuration, s.MaxTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, 10*time.Microsecond, 2*time.Millisecond)

	stats := pc.Stats()
	fast := stats.Phases[PhaseSensors].Pct
	slow := stats.Phases[PhasePhysics].Pct
	if slow <= fast {
		t.Errorf("expected physics (%v%%) > sensors (%v%%)", slow, fast)
	}
	if slow > 100 {
		t.Errorf("phase share above 100%%: %v", slow)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTickDuration != 0 || stats.Samples != 0 {
		t.Errorf("expected zero stats for an empty collector, got %+v", stats)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}
}

func TestPhaseOrder(t *testing.T) {
	want := []string{"snapshot", "sensors", "disable", "physics", "apply", "turnover"}
	got := PhaseOrder()
	if len(got) != len(want) {
		t.Fatalf("PhaseOrder() has %d phases, want %d", len(got), len(want))
	}
	for i, ph := range got {
		if ph.String() != want[i] {
			t.Errorf("phase %d = %s, want %s", i, ph, want[i])
		}
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	pc := NewPerfCollector(4)
	runTicks(pc, 3, 50*time.Microsecond, 50*time.Microsecond)

	row := pc.Stats().ToCSV(1234)
	if row.Tick != 1234 {
		t.Errorf("tick = %d, want 1234", row.Tick)
	}
	if row.SensorsPct <= 0 || row.PhysicsPct <= 0 {
		t.Errorf("expected sensors and physics percentages, got %+v", row)
	}
	if row.TurnoverPct != 0 {
		t.Errorf("turnover never ran, got %v%%", row.TurnoverPct)
	}
}
