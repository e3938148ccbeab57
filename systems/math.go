package systems

import "math"

const twoPi = 2 * math.Pi

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func finite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

// NormalizeRotation wraps an angle into [0, 2pi). Non-finite input maps to 0.
func NormalizeRotation(theta float32) float32 {
	r := math.Mod(float64(theta), twoPi)
	if math.IsNaN(r) {
		return 0
	}
	if r < 0 {
		r += twoPi
	}
	out := float32(r)
	// Values just under 2pi round up to float32(2pi).
	if out >= float32(twoPi) || out < 0 {
		return 0
	}
	return out
}

// ShouldDisable reports whether a car has spent too long off the track:
// tarmac distance below grass distance times the leniency factor.
func ShouldDisable(tarmac, grass, leniency float32) bool {
	return tarmac < grass*leniency
}
