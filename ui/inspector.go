package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/game"
)

// Panel dimensions
const (
	InspectorWidth = 300
	networkHeight  = 150
)

// CarFinder resolves a click in world coordinates to a car.
type CarFinder interface {
	CarAt(x, y, radius float32) (uint32, bool)
}

// Inspector tracks the inspected car and draws its panel.
type Inspector struct {
	painter  *Painter
	selected uint32
	has      bool
	panelX   int32
	panelY   int32
	height   int32
}

// NewInspector creates an inspector anchored to the right edge of the screen.
func NewInspector(screenWidth int32) *Inspector {
	ins := &Inspector{painter: NewPainter()}
	ins.Resize(screenWidth)
	return ins
}

// Resize re-anchors the panel after a window resize.
func (ins *Inspector) Resize(screenWidth int32) {
	ins.panelX = screenWidth - InspectorWidth - 10
	ins.panelY = 10
}

// HandleClick selects the car under a left click. Right click or Escape
// deselects. Clicks on the panel itself are ignored.
func (ins *Inspector) HandleClick(mouseX, mouseY, worldX, worldY, radius float32, cars CarFinder) {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	if ins.has && ins.contains(mouseX, mouseY) {
		return
	}
	if id, ok := cars.CarAt(worldX, worldY, radius); ok {
		ins.selected, ins.has = id, true
	}
}

// contains reports whether a screen point lies on the open panel.
func (ins *Inspector) contains(x, y float32) bool {
	return int32(x) >= ins.panelX && int32(x) <= ins.panelX+InspectorWidth &&
		int32(y) >= ins.panelY && int32(y) <= ins.panelY+ins.height
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.has = false
}

// Selected returns the inspected car id.
func (ins *Inspector) Selected() (uint32, bool) {
	return ins.selected, ins.has
}

// Draw renders the panel for the inspected car. sensorMax scales the sensor
// bars.
func (ins *Inspector) Draw(view game.CarView, d game.CarDetail, sensorMax float32) {
	p := ins.painter
	x := ins.panelX + p.Theme.Padding
	w := int32(InspectorWidth) - 2*p.Theme.Padding

	p.DrawPanel(ins.panelX, ins.panelY, InspectorWidth, ins.height)
	y := ins.panelY + p.Theme.Padding

	rl.DrawText(fmt.Sprintf("Car #%d", view.ID), x, y, 18, rl.White)
	rl.DrawRectangle(ins.panelX+InspectorWidth-30, y+2, 14, 14, rl.Color{R: view.Colour[0], G: view.Colour[1], B: view.Colour[2], A: 255})
	y += 24

	status := "racing"
	switch {
	case view.Disabled:
		status = "disabled"
	case view.WasSelected:
		status = "racing (parent)"
	}
	y = p.DrawLabelValue(x, y, "Status", status)
	speed := float32(math.Hypot(float64(d.Velocity.X), float64(d.Velocity.Y)))
	y = p.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%.2f", speed))
	y = p.DrawLabelValue(x, y, "Heading", fmt.Sprintf("%.1f deg", view.Heading*rl.Rad2deg))
	y = p.DrawCenteredBar(x, y, "Slip", view.BlendAngle, math.Pi/2, w)
	y = p.DrawLabelValue(x, y, "Tarmac", fmt.Sprintf("%.0f", d.Odometer.Tarmac))
	y = p.DrawLabelValue(x, y, "Grass", fmt.Sprintf("%.0f", d.Odometer.Grass))
	y += 4

	y = p.DrawSectionHeader(x, y, "Sensors")
	for i, v := range d.Sensors {
		y = p.DrawBar(x, y, fmt.Sprintf("Ray %d", i), v, sensorMax, w)
	}
	y += 4

	y = p.DrawSectionHeader(x, y, "Controls")
	c := d.Controls
	y = p.DrawFlags(x, y, []string{"Left", "Right", "Gas", "Brake"}, []bool{c.Left, c.Right, c.Accelerate, c.Brake})
	y = p.DrawLabelValue(x, y, "Engine", fmt.Sprintf("%.0f N", c.EngineForce))
	y += 4

	if d.Brain != nil && len(d.Sensors) > 0 {
		y = p.DrawSectionHeader(x, y, fmt.Sprintf("Network (%d params)", d.Brain.Params()))
		DrawNetworkDiagram(x+40, y, w-80, networkHeight, d.Brain.Layers(), d.Brain.Trace(d.Sensors))
		y += networkHeight + 6
	}

	ins.height = y - ins.panelY + p.Theme.Padding
}
