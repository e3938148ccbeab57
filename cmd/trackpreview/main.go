// Track preview tool - tune the procedural oval interactively with sliders.
//
// Usage: go run ./cmd/trackpreview [-config file.yaml] [-out track.png]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/track"
)

const (
	windowWidth  = 1060
	windowHeight = 720
	previewW     = 640
	previewH     = 360
	panelWidth   = windowWidth - previewW - 30
)

// slider describes one tunable track parameter.
type slider struct {
	label    string
	min, max float32
	format   string
	get      func(*config.TrackConfig) float64
	set      func(*config.TrackConfig, float64)
}

var sliders = []slider{
	{"Noise seed", 0, 9999, "%.0f",
		func(t *config.TrackConfig) float64 { return float64(t.NoiseSeed) },
		func(t *config.TrackConfig, v float64) { t.NoiseSeed = int64(v) }},
	{"Noise scale (wobbles per lap)", 0.5, 10, "%.2f",
		func(t *config.TrackConfig) float64 { return t.NoiseScale },
		func(t *config.TrackConfig, v float64) { t.NoiseScale = v }},
	{"Noise amount (fraction of radius)", 0, 0.2, "%.3f",
		func(t *config.TrackConfig) float64 { return t.NoiseAmount },
		func(t *config.TrackConfig, v float64) { t.NoiseAmount = v }},
	{"Outer radius X", 100, 960, "%.0f",
		func(t *config.TrackConfig) float64 { return t.OuterRadiusX },
		func(t *config.TrackConfig, v float64) { t.OuterRadiusX = v }},
	{"Outer radius Y", 100, 540, "%.0f",
		func(t *config.TrackConfig) float64 { return t.OuterRadiusY },
		func(t *config.TrackConfig, v float64) { t.OuterRadiusY = v }},
	{"Inner radius X", 50, 900, "%.0f",
		func(t *config.TrackConfig) float64 { return t.InnerRadiusX },
		func(t *config.TrackConfig, v float64) { t.InnerRadiusX = v }},
	{"Inner radius Y", 50, 500, "%.0f",
		func(t *config.TrackConfig) float64 { return t.InnerRadiusY },
		func(t *config.TrackConfig, v float64) { t.InnerRadiusY = v }},
}

func main() {
	configPath := flag.String("config", "", "Path to config file (uses embedded defaults if empty)")
	outPath := flag.String("out", "track.png", "Where Save PNG writes the full-resolution track")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	base, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The preview raster is coarser than the real one so slider drags stay interactive.
	preview := *base
	preview.Track.RasterWidth = previewW
	preview.Track.RasterHeight = previewH
	preview.ComputeDerived()

	rl.InitWindow(windowWidth, windowHeight, "Track Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(previewW, previewH, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var raster *track.Raster
	status := ""
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			raster = track.Procedural(&preview)
			rl.UpdateTexture(texture, raster.Pixels())
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexture(texture, 10, 10, rl.White)
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		// Start marker in preview pixels
		sx := 10 + int32(preview.World.StartX/preview.World.Width*previewW)
		sy := 10 + int32(preview.World.StartY/preview.World.Height*previewH)
		startOK := raster.MaterialAt(float32(preview.World.StartX), float32(preview.World.StartY)) == track.Tarmac
		marker := rl.Red
		if startOK {
			marker = rl.Yellow
		}
		rl.DrawCircle(sx, sy, 4, marker)

		statsY := int32(previewH + 25)
		tarmac := raster.CountKind(track.Tarmac)
		total := raster.Width() * raster.Height()
		rl.DrawText(fmt.Sprintf("Tarmac: %s cells (%.1f%%)", humanize.Comma(int64(tarmac)), 100*float64(tarmac)/float64(total)), 15, statsY, 16, rl.DarkGray)
		startText := "Start position: on tarmac"
		if !startOK {
			startText = "Start position: OFF TRACK"
		}
		rl.DrawText(startText, 15, statsY+20, 16, marker)
		if status != "" {
			rl.DrawText(status, 15, statsY+40, 16, rl.Gray)
		}

		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Track Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		tc := &preview.Track
		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			cur := float32(s.get(tc))
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				cur, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, s.get(tc)), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if next != cur {
				s.set(tc, float64(next))
				needsRegen = true
			}
			panelY += 35
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			tc.NoiseSeed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			preview.Track = base.Track
			preview.Track.RasterWidth = previewW
			preview.Track.RasterHeight = previewH
			needsRegen = true
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 250, Height: 30}, "Save PNG") {
			status = savePNG(base, tc, *outPath)
		}
		panelY += 50

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := trackYAML(base, tc)
		rl.DrawText(snippet, int32(panelX), int32(panelY), 12, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
			status = "Copied track section to clipboard"
		}

		rl.EndDrawing()
	}
}

// fullTrack returns tc with the raster size the simulation actually uses.
func fullTrack(base *config.Config, tc *config.TrackConfig) config.TrackConfig {
	full := *tc
	full.RasterWidth = base.Track.RasterWidth
	full.RasterHeight = base.Track.RasterHeight
	return full
}

// trackYAML renders the track section ready to paste into a config file.
func trackYAML(base *config.Config, tc *config.TrackConfig) string {
	data, err := yaml.Marshal(map[string]config.TrackConfig{"track": fullTrack(base, tc)})
	if err != nil {
		return fmt.Sprintf("# %v", err)
	}
	return string(data)
}

// savePNG builds the track at full resolution and writes it to path.
func savePNG(base *config.Config, tc *config.TrackConfig, path string) string {
	cfg := *base
	cfg.Track = fullTrack(base, tc)
	cfg.ComputeDerived()
	if err := track.Save(path, track.Procedural(&cfg)); err != nil {
		slog.Error("save failed", "error", err)
		return err.Error()
	}
	slog.Info("track saved", "path", path)
	return "Saved " + path
}
