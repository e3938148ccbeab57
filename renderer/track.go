package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/track"
)

// TrackRenderer draws the material raster as a single texture stretched over
// the world rectangle.
type TrackRenderer struct {
	tex         rl.Texture2D
	texW, texH  int
	initialized bool
}

// NewTrackRenderer creates a track renderer. Init must run after the window
// exists.
func NewTrackRenderer() *TrackRenderer {
	return &TrackRenderer{}
}

// Init uploads the raster to the GPU.
func (r *TrackRenderer) Init(raster *track.Raster) {
	if r.initialized {
		r.Unload()
	}
	r.texW, r.texH = raster.Width(), raster.Height()

	img := rl.GenImageColor(r.texW, r.texH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	rl.UpdateTexture(r.tex, raster.Pixels())
	r.initialized = true
}

// Draw renders the track in world coordinates. Call inside BeginMode2D.
func (r *TrackRenderer) Draw(worldW, worldH float32) {
	if !r.initialized {
		return
	}
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	dstRect := rl.Rectangle{X: 0, Y: 0, Width: worldW, Height: worldH}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *TrackRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
