package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Info     telemetry.DebugInfo
	Tick     int64
	Steps    int
	FPS      int32
	Paused   bool
	Champion string // empty when nothing is archived yet
}

// HUD renders the main heads-up display.
type HUD struct {
	painter *Painter
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{painter: NewPainter()}
}

// Draw renders the telemetry block in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	p := h.painter
	const x, y, w, lines = 10, 10, 260, 7
	p.DrawPanel(x, y, w, lines*18+p.Theme.Padding*2)

	ty := int32(y) + p.Theme.Padding
	rl.DrawText(data.Info.String(), x+p.Theme.Padding, ty, 16, rl.RayWhite)
	ty += 4 * 18

	rl.DrawText(
		fmt.Sprintf("Cars: %s racing / %s", humanize.Comma(int64(data.Info.Population-data.Info.Disabled)), humanize.Comma(int64(data.Info.Population))),
		x+p.Theme.Padding, ty, 14, rl.LightGray,
	)
	ty += 18
	rl.DrawText(
		fmt.Sprintf("Tick: %s | Speed: %dx | FPS: %d", humanize.Comma(data.Tick), data.Steps, data.FPS),
		x+p.Theme.Padding, ty, 14, rl.LightGray,
	)
	ty += 18

	status, col := "Running", rl.LightGray
	if data.Paused {
		status, col = "PAUSED", rl.Yellow
	}
	if data.Champion != "" {
		status += " | " + data.Champion
	}
	rl.DrawText(status, x+p.Theme.Padding, ty, 14, col)
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32) {
	rl.DrawText("Space pause | N step | < > speed | click inspect | wheel zoom | arrows pan | Home reset | F11 fullscreen",
		10, screenHeight-22, 14, rl.Gray)
}

// PerfPanel renders the per-phase timing breakdown.
type PerfPanel struct {
	painter *Painter
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel() *PerfPanel {
	return &PerfPanel{painter: NewPainter()}
}

// Draw renders the panel with its top-left corner at (x, y).
func (pp *PerfPanel) Draw(x, y int32, stats telemetry.PerfStats) {
	p := pp.painter
	phases := telemetry.PhaseOrder()
	p.DrawPanel(x, y, 280, int32(len(phases)+4)*14+p.Theme.Padding*2)

	ty := y + p.Theme.Padding
	rl.DrawText("Tick Performance", x+p.Theme.Padding, ty, 14, rl.White)
	ty += 18
	rl.DrawText(fmt.Sprintf("Avg: %s  (%s ticks/s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		humanize.FormatFloat("#,###.", stats.TicksPerSecond)),
		x+p.Theme.Padding, ty, 12, rl.Yellow)
	ty += 14
	rl.DrawText(fmt.Sprintf("p50 %s  p99 %s  max %s",
		stats.P50TickDuration.Round(time.Microsecond),
		stats.P99TickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond)),
		x+p.Theme.Padding, ty, 12, rl.LightGray)
	ty += 16

	for _, ph := range phases {
		avg := stats.Phases[ph].Avg
		pct := stats.Phases[ph].Pct
		col := rl.LightGray
		if pct > 40 {
			col = rl.Red
		} else if pct > 20 {
			col = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", ph, avg.Round(time.Microsecond), pct), x+p.Theme.Padding, ty, 12, col)
		ty += 14
	}
}
