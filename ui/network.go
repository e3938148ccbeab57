package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evodrive/neural"
)

// Output labels in network output order.
var OutputLabels = []string{"Left", "Right", "Gas", "Brake"}

// Network colours for activation visualization.
var (
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// DrawNetworkDiagram renders a layered network with one column per layer.
// values holds every layer's activations, inputs first, as returned by
// neural.Network.Trace.
func DrawNetworkDiagram(x, y, width, height int32, layers [][]neural.Neuron, values [][]float32) {
	if len(values) != len(layers)+1 {
		rl.DrawText("No network data", x, y, 12, ColorLabelDim)
		return
	}
	nodeRadius := float32(5)
	cols := len(values)
	colWidth := float32(width) / float32(cols-1)

	nodes := make([][]rl.Vector2, cols)
	for li, layer := range values {
		spacing := float32(height) / float32(len(layer))
		nodes[li] = make([]rl.Vector2, len(layer))
		for i := range layer {
			nodes[li][i] = rl.Vector2{
				X: float32(x) + float32(li)*colWidth,
				Y: float32(y) + spacing*(float32(i)+0.5),
			}
		}
	}

	for li, layer := range layers {
		for i, neuron := range layer {
			for _, conn := range neuron.Connections {
				drawEdge(nodes[li][conn.Source], nodes[li+1][i], conn.Weight)
			}
		}
	}

	for li, layer := range values {
		for i, v := range layer {
			act := v
			if li == 0 {
				// Inputs are ray distances; squash for colour only.
				act = float32(math.Tanh(float64(v) / 100))
			}
			drawNode(nodes[li][i], nodeRadius, act)
		}
	}

	last := nodes[cols-1]
	for i, pos := range last {
		if i < len(OutputLabels) {
			rl.DrawText(OutputLabels[i], int32(pos.X+nodeRadius+6), int32(pos.Y)-5, 10, ColorLabelDim)
		}
	}
}

// drawNode renders a single neuron node.
func drawNode(pos rl.Vector2, radius, activation float32) {
	rl.DrawCircleV(pos, radius, activationColor(activation))
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

// drawEdge renders a connection between nodes.
func drawEdge(from, to rl.Vector2, weight float32) {
	mag := abs32(weight)
	thickness := min(max(mag*1.5, 0.5), 3)

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	color.A = uint8(min(40+int(mag*40), 150))

	rl.DrawLineEx(from, to, thickness, color)
}

// activationColor maps [0, 1] from grey to red.
func activationColor(activation float32) rl.Color {
	t := min(max(activation, 0), 1)
	return rl.Color{
		R: uint8(60 + t*195),
		G: uint8(60 - t*30),
		B: uint8(60 - t*30),
		A: 255,
	}
}
