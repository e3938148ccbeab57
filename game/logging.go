package game

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/evodrive/telemetry"
)

// logGeneration logs a finished generation.
func (e *Engine) logGeneration(stats telemetry.GenerationStats) {
	slog.Info("generation",
		"run_id", e.runID,
		"tick", e.tick,
		"ticks", humanize.Comma(e.tick),
		"stats", stats,
	)
	if e.logStats {
		e.logPerfStats()
	}
}

// logPerfStats logs the rolling timing window.
func (e *Engine) logPerfStats() {
	ps := e.perf.Stats()
	slog.Info("perf",
		"tick", e.tick,
		"avg_tick", ps.AvgTickDuration.Round(time.Microsecond).String(),
		"ticks_per_sec", humanize.FormatFloat("#,###.#", ps.TicksPerSecond),
		"stats", ps,
	)
}
