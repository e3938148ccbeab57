package systems

import (
	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/neural"
)

// Controller turns sensor readings into driving inputs.
type Controller interface {
	Decide(sensors []float32, disabled bool) components.Controls
}

// NeuralDriver drives with an evolved network. Outputs are, in order:
// turn left, turn right, throttle, brake.
type NeuralDriver struct {
	Net *neural.Network

	threshold float32
	offset    float32
	lift      float32
	nominal   float32
}

// NewNeuralDriver wraps net with the output decoding from cfg.
func NewNeuralDriver(net *neural.Network, cfg *config.Config) NeuralDriver {
	return NeuralDriver{
		Net:       net,
		threshold: float32(cfg.Neural.DecisionThreshold),
		offset:    float32(cfg.Neural.ThrottleOffset),
		lift:      float32(cfg.Neural.ThrottleLift),
		nominal:   float32(cfg.Car.NominalEngineForce),
	}
}

// Decide evaluates the network once. The car always accelerates unless it
// has been disabled.
func (d NeuralDriver) Decide(sensors []float32, disabled bool) components.Controls {
	out := d.Net.Evaluate(sensors)
	return components.Controls{
		Left:        out[0] > d.threshold,
		Right:       out[1] > d.threshold,
		Brake:       out[3] > d.threshold,
		Accelerate:  !disabled,
		EngineForce: d.Throttle(out[2]) * d.nominal,
	}
}

// Throttle remaps a raw throttle output into the engine force fraction.
func (d NeuralDriver) Throttle(raw float32) float32 {
	return min(max(raw-d.offset, 0)+d.lift, 1) - d.offset
}
