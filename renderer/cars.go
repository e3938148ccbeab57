package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/game"
)

var (
	colorSelectedBox = rl.Yellow
	colorInspected   = rl.Color{R: 255, G: 255, B: 255, A: 255}
	colorHeading     = rl.Color{R: 240, G: 240, B: 240, A: 200}
	colorBlend       = rl.Color{R: 255, G: 90, B: 60, A: 220}
	colorRay         = rl.Color{R: 80, G: 200, B: 255, A: 180}
)

// CarLayers selects the optional per-car decorations.
type CarLayers struct {
	SelectionBoxes bool // yellow box around last generation's parents
	Headings       bool
	BlendAngles    bool
	HideDisabled   bool
}

// CarRenderer draws the population.
type CarRenderer struct{}

// NewCarRenderer creates a car renderer.
func NewCarRenderer() *CarRenderer {
	return &CarRenderer{}
}

// Draw renders every car in world coordinates. Call inside BeginMode2D.
// zoom keeps outline widths constant in screen pixels.
func (r *CarRenderer) Draw(cars []game.CarView, layers CarLayers, zoom float32) {
	line := 1.5 / zoom

	// Disabled cars first so the racing ones stay on top.
	for pass := 0; pass < 2; pass++ {
		for i := range cars {
			c := &cars[i]
			if c.Disabled != (pass == 0) {
				continue
			}
			if c.Disabled && layers.HideDisabled {
				continue
			}
			r.drawBody(c)

			if layers.SelectionBoxes && c.WasSelected {
				drawOutline(c.Corners, line, colorSelectedBox)
			}
			if layers.Headings && !c.Disabled {
				fx, fy := facing(c.Heading)
				end := rl.Vector2{X: c.Pos.X + fx*c.Width, Y: c.Pos.Y + fy*c.Width}
				rl.DrawLineEx(vec(c.Pos), end, line, colorHeading)
			}
			if layers.BlendAngles && c.BlendAngle != 0 {
				fx, fy := facing(c.Heading + c.BlendAngle)
				end := rl.Vector2{X: c.Pos.X + fx*c.Width*1.5, Y: c.Pos.Y + fy*c.Width*1.5}
				rl.DrawLineEx(vec(c.Pos), end, line, colorBlend)
			}
		}
	}
}

// DrawInspected highlights one car and its sensor rays.
func (r *CarRenderer) DrawInspected(c game.CarView, detail game.CarDetail, sensorAngles []float32, zoom float32) {
	line := 1.5 / zoom
	for i, off := range sensorAngles {
		if i >= len(detail.Sensors) {
			break
		}
		fx, fy := facing(c.Heading + off)
		d := detail.Sensors[i]
		end := rl.Vector2{X: c.Pos.X + fx*d, Y: c.Pos.Y + fy*d}
		rl.DrawLineEx(vec(c.Pos), end, line, colorRay)
		rl.DrawCircleV(end, 3/zoom, colorRay)
	}
	drawOutline(c.Corners, 2*line, colorInspected)
}

func (r *CarRenderer) drawBody(c *game.CarView) {
	col := rl.Color{R: c.Colour[0], G: c.Colour[1], B: c.Colour[2], A: 255}
	if c.Disabled {
		col.A = 90
	}
	rec := rl.Rectangle{X: c.Pos.X, Y: c.Pos.Y, Width: c.Width, Height: c.Height}
	origin := rl.Vector2{X: c.Width / 2, Y: c.Height / 2}
	rl.DrawRectanglePro(rec, origin, c.Heading*rl.Rad2deg, col)
}

// drawOutline joins the corners around the body. Corners 0 and 1 are at the
// rear, 2 and 3 at the front.
func drawOutline(corners [4]components.Position, thick float32, col rl.Color) {
	order := [5]int{0, 2, 3, 1, 0}
	for i := 0; i < 4; i++ {
		rl.DrawLineEx(vec(corners[order[i]]), vec(corners[order[i+1]]), thick, col)
	}
}

func facing(angle float32) (float32, float32) {
	s, c := math.Sincos(float64(angle))
	return float32(c), float32(s)
}

func vec(p components.Position) rl.Vector2 {
	return rl.Vector2{X: p.X, Y: p.Y}
}
