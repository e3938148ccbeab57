// Package neural provides the layered feed-forward networks that steer the cars.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrDegenerateNetwork is returned when a layer would have no neurons.
var ErrDegenerateNetwork = errors.New("neural: every layer needs at least one neuron")

// Connection links a neuron to one neuron of the previous layer.
type Connection struct {
	Source int // index into the previous layer
	Weight float32
}

// Neuron is a non-input neuron: a bias and one connection per neuron of the
// previous layer.
type Neuron struct {
	Bias        float32
	Connections []Connection
}

// Network is a strictly layered DAG. The input layer only holds values, so
// layers[0] is the first hidden layer and the last entry is the output layer.
type Network struct {
	inputs int
	layers [][]Neuron

	// values[0] holds the inputs, values[i] the outputs of layers[i-1].
	// Rebuilt on every Evaluate call.
	values [][]float32
}

// New builds a network with every weight and bias drawn uniformly from [-1, 1].
func New(inputs int, hidden []int, outputs int, rng *rand.Rand) (*Network, error) {
	if inputs <= 0 || outputs <= 0 || len(hidden) == 0 {
		return nil, fmt.Errorf("%w: inputs=%d hidden=%v outputs=%d", ErrDegenerateNetwork, inputs, hidden, outputs)
	}
	for _, w := range hidden {
		if w <= 0 {
			return nil, fmt.Errorf("%w: hidden=%v", ErrDegenerateNetwork, hidden)
		}
	}

	widths := append(append([]int{}, hidden...), outputs)
	n := &Network{inputs: inputs, layers: make([][]Neuron, len(widths))}
	prev := inputs
	for li, w := range widths {
		layer := make([]Neuron, w)
		for i := range layer {
			conns := make([]Connection, prev)
			for j := range conns {
				conns[j] = Connection{Source: j, Weight: uniform(rng)}
			}
			layer[i] = Neuron{Bias: uniform(rng), Connections: conns}
		}
		n.layers[li] = layer
		prev = w
	}
	n.allocValues()
	return n, nil
}

func uniform(rng *rand.Rand) float32 {
	return rng.Float32()*2 - 1
}

func (n *Network) allocValues() {
	n.values = make([][]float32, len(n.layers)+1)
	n.values[0] = make([]float32, n.inputs)
	for i, layer := range n.layers {
		n.values[i+1] = make([]float32, len(layer))
	}
}

// Sizes returns the neuron count of every layer, input layer first.
func (n *Network) Sizes() []int {
	sizes := make([]int, 0, len(n.layers)+1)
	sizes = append(sizes, n.inputs)
	for _, layer := range n.layers {
		sizes = append(sizes, len(layer))
	}
	return sizes
}

// Params returns the number of trainable values (weights plus biases).
func (n *Network) Params() int {
	total := 0
	for _, layer := range n.layers {
		for _, neuron := range layer {
			total += 1 + len(neuron.Connections)
		}
	}
	return total
}

// Layers exposes the neuron arena for inspection and tests. Callers must not
// change its shape.
func (n *Network) Layers() [][]Neuron { return n.layers }

// Evaluate runs the network on inputs and returns a fresh slice of outputs.
// Panics if len(inputs) differs from the input layer size.
func (n *Network) Evaluate(inputs []float32) []float32 {
	if len(inputs) != n.inputs {
		panic(fmt.Sprintf("neural: got %d inputs, network expects %d", len(inputs), n.inputs))
	}
	copy(n.values[0], inputs)

	for li, layer := range n.layers {
		prev := n.values[li]
		out := n.values[li+1]
		for i := range layer {
			out[i] = activate(&layer[i], prev)
		}
	}

	last := n.values[len(n.values)-1]
	result := make([]float32, len(last))
	copy(result, last)
	return result
}

// Trace evaluates the network and returns a copy of every layer's values,
// inputs first.
func (n *Network) Trace(inputs []float32) [][]float32 {
	n.Evaluate(inputs)
	out := make([][]float32, len(n.values))
	for i, v := range n.values {
		out[i] = append([]float32(nil), v...)
	}
	return out
}

// activate returns sigmoid(sum - bias), clamped to 0 or 1 when the result is
// not finite.
func activate(neuron *Neuron, prev []float32) float32 {
	var sum float32
	for _, c := range neuron.Connections {
		sum += prev[c.Source] * c.Weight
	}
	s := sigmoid(float64(sum - neuron.Bias))
	if math.IsNaN(s) || math.IsInf(s, 0) {
		if sum > 0 {
			return 1
		}
		return 0
	}
	return float32(s)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Clone returns an independent deep copy.
func (n *Network) Clone() *Network {
	return n.CloneWithMutation(nil, 0)
}

// CloneWithMutation deep-copies the network and shifts every bias and weight
// by an independent uniform delta in [-scale, scale). A nil rng or zero scale
// produces an exact copy.
func (n *Network) CloneWithMutation(rng *rand.Rand, scale float32) *Network {
	mutate := rng != nil && scale != 0
	delta := func() float32 {
		if !mutate {
			return 0
		}
		return (rng.Float32() - 0.5) * 2 * scale
	}

	c := &Network{inputs: n.inputs, layers: make([][]Neuron, len(n.layers))}
	for li, layer := range n.layers {
		copied := make([]Neuron, len(layer))
		for i, neuron := range layer {
			conns := make([]Connection, len(neuron.Connections))
			for j, conn := range neuron.Connections {
				conns[j] = Connection{Source: conn.Source, Weight: conn.Weight + delta()}
			}
			copied[i] = Neuron{Bias: neuron.Bias + delta(), Connections: conns}
		}
		c.layers[li] = copied
	}
	c.allocValues()
	return c
}
