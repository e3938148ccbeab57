package track

import (
	"image/color"
	"math"
)

// Display colours for Pixels.
var (
	TarmacColor = color.RGBA{R: 104, G: 104, B: 110, A: 255}
	GrassColor  = color.RGBA{R: 58, G: 128, B: 52, A: 255}
)

// Raster is a fixed-resolution grid of surface kinds stretched over the world
// bounds. It is immutable once built and may be shared by all workers.
type Raster struct {
	width, height  int
	worldW, worldH float32
	cells          []Kind
}

// NewRaster creates a raster of the given resolution covering worldW x worldH,
// with every cell set to the off-track material.
func NewRaster(width, height int, worldW, worldH float32) *Raster {
	if width <= 0 || height <= 0 {
		panic("track: raster dimensions must be positive")
	}
	return &Raster{
		width:  width,
		height: height,
		worldW: worldW,
		worldH: worldH,
		cells:  make([]Kind, width*height),
	}
}

// Width returns the raster width in cells.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in cells.
func (r *Raster) Height() int { return r.height }

// Set assigns a cell. Only used while building a raster.
func (r *Raster) Set(px, py int, k Kind) {
	if px < 0 || py < 0 || px >= r.width || py >= r.height {
		return
	}
	r.cells[py*r.width+px] = k
}

// Cell returns the kind stored at raster coordinates, OffTrack when outside.
func (r *Raster) Cell(px, py int) Kind {
	if px < 0 || py < 0 || px >= r.width || py >= r.height {
		return OffTrack
	}
	return r.cells[py*r.width+px]
}

// MaterialAt maps world coordinates onto the raster. Positions outside the
// raster, and NaN coordinates, resolve to OffTrack.
func (r *Raster) MaterialAt(x, y float32) Kind {
	fx := float64(x) / float64(r.worldW) * float64(r.width)
	fy := float64(y) / float64(r.worldH) * float64(r.height)
	if math.IsNaN(fx) || math.IsNaN(fy) || fx < 0 || fy < 0 ||
		fx >= float64(r.width) || fy >= float64(r.height) {
		return OffTrack
	}
	return r.Cell(int(fx), int(fy))
}

// CountKind returns how many cells hold k.
func (r *Raster) CountKind(k Kind) int {
	n := 0
	for _, c := range r.cells {
		if c == k {
			n++
		}
	}
	return n
}

// Pixels returns the raster as row-major colours for texture upload.
func (r *Raster) Pixels() []color.RGBA {
	pixels := make([]color.RGBA, len(r.cells))
	for i, c := range r.cells {
		if c == Tarmac {
			pixels[i] = TarmacColor
		} else {
			pixels[i] = GrassColor
		}
	}
	return pixels
}
