package track

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/evodrive/config"
)

// Procedural builds an oval ring track whose edges wobble with simplex noise
// sampled around the loop, so the same seed always yields the same circuit.
func Procedural(cfg *config.Config) *Raster {
	tc := cfg.Track
	w, h := tc.RasterWidth, tc.RasterHeight
	r := NewRaster(w, h, cfg.Derived.WorldW32, cfg.Derived.WorldH32)
	noise := opensimplex.New(tc.NoiseSeed)

	cellW := cfg.World.Width / float64(w)
	cellH := cfg.World.Height / float64(h)

	for py := 0; py < h; py++ {
		wy := (float64(py) + 0.5) * cellH
		dy := wy - tc.CenterY
		for px := 0; px < w; px++ {
			wx := (float64(px) + 0.5) * cellW
			dx := wx - tc.CenterX

			// Sampling on a circle keeps the wobble continuous across the seam at +-pi
			theta := math.Atan2(dy/tc.OuterRadiusY, dx/tc.OuterRadiusX)
			wobble := 1 + tc.NoiseAmount*noise.Eval2(math.Cos(theta)*tc.NoiseScale, math.Sin(theta)*tc.NoiseScale)

			outer := math.Hypot(dx/tc.OuterRadiusX, dy/tc.OuterRadiusY)
			inner := math.Hypot(dx/tc.InnerRadiusX, dy/tc.InnerRadiusY)
			if outer <= wobble && inner >= wobble {
				r.Set(px, py, Tarmac)
			}
		}
	}
	return r
}
