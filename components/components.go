// Package components defines ECS components for the simulation.
package components

import "math"

// Position is a car's centre in world units.
type Position struct {
	X, Y float32
}

// Velocity is in world units per second.
type Velocity struct {
	X, Y float32
}

// Rotation holds the heading and its rate of change.
type Rotation struct {
	Heading float32 // radians, kept in [0, 2pi)
	AngVel  float32 // degrees per second
}

// Facing returns the unit vector the car points along.
func (r Rotation) Facing() (x, y float32) {
	s, c := math.Sincos(float64(r.Heading))
	return float32(c), float32(s)
}

// Body holds per-car physical constants.
type Body struct {
	Width, Height  float32
	Mass           float32
	MaxEngineForce float32
}

// Forces accumulates externally injected force and torque.
// Physics consumes and clears them every tick.
type Forces struct {
	X, Y   float32
	Torque float32
}

// Odometer accumulates squared displacement per surface. It only grows within
// a generation and is zeroed at turnover.
type Odometer struct {
	Tarmac float32
	Grass  float32
}

// Controls is the decoded controller output for one tick.
type Controls struct {
	Left, Right bool
	Accelerate  bool
	Brake       bool
	EngineForce float32
}

// Driver holds the evolutionary bookkeeping and per-tick controller state.
// The network itself lives outside the ECS, keyed by ID.
type Driver struct {
	ID          uint32
	Colour      [3]uint8
	Sensors     []float32
	Controls    Controls
	Disabled    bool
	WasSelected bool
	BlendAngle  float32 // signed wheel/velocity angle from the last velocity update
}

// Corners returns the four corners of the car's bounding box in world units.
// Order: rear-left, rear-right, front-left, front-right relative to facing.
func Corners(p Position, r Rotation, b Body) [4]Position {
	fx, fy := r.Facing()
	hw, hh := b.Width/2, b.Height/2
	return [4]Position{
		{X: p.X - hw*fx + hh*fy, Y: p.Y - hw*fy - hh*fx},
		{X: p.X - hw*fx - hh*fy, Y: p.Y - hw*fy + hh*fx},
		{X: p.X + hw*fx + hh*fy, Y: p.Y + hw*fy - hh*fx},
		{X: p.X + hw*fx - hh*fy, Y: p.Y + hw*fy + hh*fx},
	}
}
