package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSteps bounds the simulation ticks run per frame.
const MaxSteps = 50

// SimControls is the playback state the controls panel edits.
type SimControls struct {
	Paused   bool
	Steps    int  // ticks per frame
	StepOnce bool // advance one tick while paused, cleared by the caller
}

// HandleKeys applies the keyboard shortcuts for playback.
func (s *SimControls) HandleKeys() {
	if rl.IsKeyPressed(rl.KeySpace) {
		s.Paused = !s.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) && s.Paused {
		s.StepOnce = true
	}
	if rl.IsKeyPressed(rl.KeyComma) && s.Steps > 1 {
		s.Steps--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && s.Steps < MaxSteps {
		s.Steps++
	}
}

// ControlsPanel renders playback buttons and overlay toggles.
type ControlsPanel struct {
	painter *Painter
	width   int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(width int32) *ControlsPanel {
	return &ControlsPanel{painter: NewPainter(), width: width}
}

// Height returns the panel height for the given overlay count.
func (c *ControlsPanel) Height(overlays int) int32 {
	return 110 + int32(overlays)*22 + c.painter.Theme.Padding*2
}

// Draw renders the panel at (x, y) and applies clicks to sim and overlays.
func (c *ControlsPanel) Draw(x, y int32, sim *SimControls, overlays *OverlayRegistry) {
	p := c.painter
	all := overlays.All()
	p.DrawPanel(x, y, c.width, c.Height(len(all)))

	px := float32(x + p.Theme.Padding)
	py := float32(y + p.Theme.Padding)
	inner := float32(c.width - 2*p.Theme.Padding)

	rl.DrawText("Controls", int32(px), int32(py), 16, rl.White)
	py += 24

	half := (inner - 10) / 2
	if gui.Button(rl.Rectangle{X: px, Y: py, Width: half, Height: 26}, toggleText(sim.Paused, "Resume", "Pause")) {
		sim.Paused = !sim.Paused
	}
	if gui.Button(rl.Rectangle{X: px + half + 10, Y: py, Width: half, Height: 26}, "Step") {
		sim.Paused = true
		sim.StepOnce = true
	}
	py += 36

	rl.DrawText(fmt.Sprintf("Ticks per frame: %d", sim.Steps), int32(px), int32(py), 12, p.Theme.LabelColor)
	py += 16
	steps := gui.SliderBar(
		rl.Rectangle{X: px + 12, Y: py, Width: inner - 40, Height: 16},
		"1", fmt.Sprint(MaxSteps),
		float32(sim.Steps), 1, MaxSteps,
	)
	sim.Steps = min(max(int(steps+0.5), 1), MaxSteps)
	py += 30

	for _, desc := range all {
		label := desc.Name
		if desc.KeyLabel != "" {
			label = fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
		}
		on := gui.CheckBox(rl.Rectangle{X: px, Y: py, Width: 14, Height: 14}, label, overlays.IsEnabled(desc.ID))
		overlays.SetEnabled(desc.ID, on)
		py += 22
	}
}

func toggleText(on bool, whenOn, whenOff string) string {
	if on {
		return whenOn
	}
	return whenOff
}
