package systems

import (
	"math"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/track"
)

// SensorArray describes the ray fan every car casts each tick.
type SensorArray struct {
	Angles      []float32 // offsets from heading, radians
	Step        float32
	MaxDistance float32 // 0 disables the cutoff
}

// NewSensorArray builds the ray fan from config.
func NewSensorArray(cfg *config.Config) SensorArray {
	return SensorArray{
		Angles:      cfg.Derived.SensorAngles,
		Step:        float32(cfg.Sensors.Step),
		MaxDistance: float32(cfg.Sensors.MaxDistance),
	}
}

// DistanceToOffTrack marches a ray from (x, y) along angle in fixed steps and
// returns the distance covered before the sampled surface is off-track.
func DistanceToOffTrack(m track.MaterialMap, x, y, angle, step, maxDist float32) float32 {
	s, c := math.Sincos(float64(angle))
	dx, dy := float32(c)*step, float32(s)*step

	var dist float32
	for m.MaterialAt(x, y) != track.OffTrack {
		x += dx
		y += dy
		dist += step
		if maxDist > 0 && dist >= maxDist {
			return maxDist
		}
	}
	return dist
}

// ComputeSensors fills dst with one ray distance per sensor angle and
// returns it. dst is grown if it is too short.
func ComputeSensors(dst []float32, m track.MaterialMap, pos components.Position, heading float32, sa SensorArray) []float32 {
	if cap(dst) < len(sa.Angles) {
		dst = make([]float32, len(sa.Angles))
	}
	dst = dst[:len(sa.Angles)]
	for i, off := range sa.Angles {
		dst[i] = DistanceToOffTrack(m, pos.X, pos.Y, heading+off, sa.Step, sa.MaxDistance)
	}
	return dst
}
