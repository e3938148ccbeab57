// Package renderer draws the simulation state with raylib: the track texture,
// the cars and per-car decorations. It only reads engine state.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/camera"
	"github.com/pthm-cable/evodrive/game"
	"github.com/pthm-cable/evodrive/track"
)

var colorBackground = rl.Color{R: 24, G: 30, B: 24, A: 255}

// Frame is everything needed to draw the world once.
type Frame struct {
	Cars   []game.CarView
	Layers CarLayers

	// Inspected is drawn on top with its sensor rays when HasInspected is set.
	Inspected    game.CarView
	Detail       game.CarDetail
	HasInspected bool
}

// Renderer draws the world through a camera.
type Renderer struct {
	cam          *camera.Camera
	trackR       *TrackRenderer
	carR         *CarRenderer
	worldW       float32
	worldH       float32
	sensorAngles []float32
}

// New creates a renderer for a world of the given size. Must be called after
// the raylib window is created.
func New(cam *camera.Camera, raster *track.Raster, sensorAngles []float32) *Renderer {
	r := &Renderer{
		cam:          cam,
		trackR:       NewTrackRenderer(),
		carR:         NewCarRenderer(),
		worldW:       cam.WorldW,
		worldH:       cam.WorldH,
		sensorAngles: sensorAngles,
	}
	r.trackR.Init(raster)
	return r
}

// Camera2D converts the camera into raylib's 2D camera.
func (r *Renderer) Camera2D() rl.Camera2D {
	return rl.Camera2D{
		Offset: rl.Vector2{X: r.cam.ViewportW / 2, Y: r.cam.ViewportH / 2},
		Target: rl.Vector2{X: r.cam.X, Y: r.cam.Y},
		Zoom:   r.cam.Zoom,
	}
}

// DrawWorld clears the screen and draws the track and cars. The caller wraps
// it in BeginDrawing/EndDrawing and draws UI afterwards.
func (r *Renderer) DrawWorld(f *Frame) {
	rl.ClearBackground(colorBackground)

	rl.BeginMode2D(r.Camera2D())
	r.trackR.Draw(r.worldW, r.worldH)
	r.carR.Draw(f.Cars, f.Layers, r.cam.Zoom)
	if f.HasInspected {
		r.carR.DrawInspected(f.Inspected, f.Detail, r.sensorAngles, r.cam.Zoom)
	}
	rl.EndMode2D()
}

// Unload frees GPU resources.
func (r *Renderer) Unload() {
	r.trackR.Unload()
}
