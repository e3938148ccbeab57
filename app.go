package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/camera"
	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/game"
	"github.com/pthm-cable/evodrive/renderer"
	"github.com/pthm-cable/evodrive/storage"
	"github.com/pthm-cable/evodrive/track"
	"github.com/pthm-cable/evodrive/ui"
)

// app is the graphical front end: input, stepping and drawing.
type app struct {
	cfg    *config.Config
	engine *game.Engine
	store  storage.Store

	cam       *camera.Camera
	renderer  *renderer.Renderer
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlsPanel
	inspector *ui.Inspector
	overlays  *ui.OverlayRegistry
	sim       ui.SimControls

	cars        []game.CarView
	champion    string
	championGen int
}

// runGraphical opens a window and runs until it is closed or a limit is hit.
func runGraphical(cfg *config.Config, e *game.Engine, raster *track.Raster, store storage.Store, steps int, limits runLimits) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "evodrive")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	sw, sh := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	cam := camera.New(sw, sh, cfg.Derived.WorldW32, cfg.Derived.WorldH32)

	a := &app{
		cfg:         cfg,
		engine:      e,
		store:       store,
		cam:         cam,
		renderer:    renderer.New(cam, raster, cfg.Derived.SensorAngles),
		hud:         ui.NewHUD(),
		perfPanel:   ui.NewPerfPanel(),
		controls:    ui.NewControlsPanel(220),
		inspector:   ui.NewInspector(int32(cfg.Screen.Width)),
		overlays:    ui.NewOverlayRegistry(),
		sim:         ui.SimControls{Steps: min(steps, ui.MaxSteps)},
		championGen: -1,
	}
	defer a.renderer.Unload()

	for !rl.WindowShouldClose() && !limits.reached(e) {
		a.update()
		a.draw()
	}
}

func (a *app) update() {
	a.handleInput()

	switch {
	case a.sim.StepOnce:
		a.engine.Step()
		a.sim.StepOnce = false
	case !a.sim.Paused:
		for i := 0; i < a.sim.Steps; i++ {
			a.engine.Step()
		}
	}
	a.engine.RecordFrame()
	a.cars = a.engine.Snapshot(a.cars)
	a.refreshChampion()
}

func (a *app) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	a.sim.HandleKeys()
	a.overlays.HandleKeys()
	a.handleCameraInput()

	mouse := rl.GetMousePosition()
	if a.overControls(mouse) {
		return
	}
	wx, wy := a.cam.ScreenToWorld(mouse.X, mouse.Y)
	radius := max(float32(a.cfg.Car.Width), 12/a.cam.Zoom)
	a.inspector.HandleClick(mouse.X, mouse.Y, wx, wy, radius, a.engine)
}

// handleResize checks for window resize and propagates new dimensions.
func (a *app) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	a.cam.Resize(w, h)
	a.inspector.Resize(int32(w))
}

// handleCameraInput processes camera pan/zoom controls.
func (a *app) handleCameraInput() {
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		a.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		a.cam.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		a.cam.Reset()
	}
}

// controlsOrigin places the controls panel in the bottom-right corner.
func (a *app) controlsOrigin() (int32, int32) {
	h := a.controls.Height(len(a.overlays.All()))
	return int32(rl.GetScreenWidth()) - 230, int32(rl.GetScreenHeight()) - h - 30
}

func (a *app) overControls(mouse rl.Vector2) bool {
	x, y := a.controlsOrigin()
	return int32(mouse.X) >= x && int32(mouse.Y) >= y
}

// refreshChampion updates the HUD line after every turnover.
func (a *app) refreshChampion() {
	gen := a.engine.Generation()
	if gen == a.championGen || a.store == nil {
		return
	}
	a.championGen = gen
	champ, ok, err := a.store.LatestChampion(context.Background(), a.engine.RunID())
	if err != nil || !ok {
		return
	}
	a.champion = fmt.Sprintf("champion g%d: %s tarmac", champ.Generation, humanize.CommafWithDigits(champ.Tarmac, 0))
}

func (a *app) draw() {
	frame := renderer.Frame{
		Cars: a.cars,
		Layers: renderer.CarLayers{
			SelectionBoxes: a.overlays.IsEnabled(ui.OverlaySelectionBoxes),
			Headings:       a.overlays.IsEnabled(ui.OverlayHeadings),
			BlendAngles:    a.overlays.IsEnabled(ui.OverlayBlendAngles),
			HideDisabled:   a.overlays.IsEnabled(ui.OverlayHideDisabled),
		},
	}

	id, selected := a.inspector.Selected()
	var view game.CarView
	if selected {
		view, selected = a.findCar(id)
		if selected {
			frame.Detail, selected = a.engine.Detail(id)
		}
		if !selected {
			a.inspector.Deselect()
		}
	}
	if selected {
		frame.Inspected = view
		frame.HasInspected = true
	}

	rl.BeginDrawing()
	a.renderer.DrawWorld(&frame)

	a.hud.Draw(ui.HUDData{
		Info:     a.engine.Info(),
		Tick:     a.engine.Tick(),
		Steps:    a.sim.Steps,
		FPS:      rl.GetFPS(),
		Paused:   a.sim.Paused,
		Champion: a.champion,
	})
	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(10, 150, a.engine.Perf())
	}
	if frame.HasInspected {
		a.inspector.Draw(frame.Inspected, frame.Detail, a.sensorScale())
	}
	cx, cy := a.controlsOrigin()
	a.controls.Draw(cx, cy, &a.sim, a.overlays)
	a.hud.DrawControls(int32(rl.GetScreenHeight()))
	rl.EndDrawing()
}

// sensorScale is the ray length shown as a full sensor bar.
func (a *app) sensorScale() float32 {
	const maxScale = 500
	d := float32(a.cfg.Sensors.MaxDistance)
	if d <= 0 || d > maxScale {
		return maxScale
	}
	return d
}

func (a *app) findCar(id uint32) (game.CarView, bool) {
	for _, c := range a.cars {
		if c.ID == id {
			return c, true
		}
	}
	return game.CarView{}, false
}
