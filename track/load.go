package track

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/pthm-cable/evodrive/config"
)

// Load reads a track image from disk and rasterises it.
func Load(path string, cfg *config.Config) (*Raster, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening track image: %w", err)
	}
	return FromImage(img, cfg), nil
}

// FromImage converts an image into a raster. Pixels whose red channel equals
// track.tarmac_red become tarmac, everything else is off-track. Images that do
// not match the configured raster resolution are resized first.
func FromImage(img image.Image, cfg *config.Config) *Raster {
	w, h := cfg.Track.RasterWidth, cfg.Track.RasterHeight
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		img = transform.Resize(img, w, h, transform.NearestNeighbor)
	}

	r := NewRaster(w, h, cfg.Derived.WorldW32, cfg.Derived.WorldH32)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			if c.R == cfg.Track.TarmacRed {
				r.Set(x, y, Tarmac)
			}
		}
	}
	return r
}

// FromConfig builds the raster the config asks for: the image when one is
// named, otherwise the procedural oval.
func FromConfig(cfg *config.Config) (*Raster, error) {
	if cfg.Track.Image != "" {
		return Load(cfg.Track.Image, cfg)
	}
	return Procedural(cfg), nil
}

// Image renders the raster with the tarmac and grass colours. The result
// loads back into the same raster as long as track.tarmac_red matches
// TarmacColor.R.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i, c := range r.Pixels() {
		img.SetRGBA(i%r.width, i/r.width, c)
	}
	return img
}

// Save writes the raster to path as a PNG.
func Save(path string, r *Raster) error {
	if err := imgio.Save(path, r.Image(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("saving track image: %w", err)
	}
	return nil
}
