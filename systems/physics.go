// Package systems contains the per-car simulation systems: physics, sensors
// and the controllers that turn sensor readings into driving inputs.
package systems

import (
	"math"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/track"
)

// Car groups the component pointers of one car. Physics functions only touch
// the car they are given, so distinct cars can be updated concurrently.
type Car struct {
	Pos    *components.Position
	Vel    *components.Velocity
	Rot    *components.Rotation
	Body   *components.Body
	Forces *components.Forces
	Odo    *components.Odometer
	Driver *components.Driver
}

// Physics holds the tuned dynamics constants. It has no mutable state.
type Physics struct {
	gravity       float32
	steerTorque   float32
	steerRefSq    float32
	angDragQuad   float32
	angDragLin    float32
	brakeForce    float32
	rollingDiv    float32
	airDrag       float32
	minBlendSq    float32
	rotationMix   float32
	width, height float32
}

// NewPhysics copies the physics and world constants out of cfg.
func NewPhysics(cfg *config.Config) *Physics {
	pc := cfg.Physics
	return &Physics{
		gravity:     float32(pc.Gravity),
		steerTorque: float32(pc.SteerTorque),
		steerRefSq:  float32(pc.SteerReferenceSpeed * pc.SteerReferenceSpeed),
		angDragQuad: float32(pc.AngularDragQuadratic),
		angDragLin:  float32(pc.AngularDragLinear),
		brakeForce:  float32(pc.BrakeForce),
		rollingDiv:  float32(pc.RollingDivisor),
		airDrag:     float32(pc.AirDragCoefficient),
		minBlendSq:  float32(pc.MinBlendSpeedSq),
		rotationMix: float32(pc.RotationMix),
		width:       cfg.Derived.WorldW32,
		height:      cfg.Derived.WorldH32,
	}
}

// Step advances one car by dt: rotation, then velocity, then position. The
// surface is sampled once at the car's position before it moves.
func (p *Physics) Step(c Car, dt float32, surface track.Kind) {
	p.UpdateRotation(c, dt)
	p.UpdateVelocity(c, dt, surface, c.Driver.Controls.EngineForce)
	p.UpdatePosition(c, dt, surface)
}

// UpdateRotation integrates steering torque, angular drag and any injected
// torque into angular velocity and heading.
func (p *Physics) UpdateRotation(c Car, dt float32) {
	ctl := c.Driver.Controls

	var torque float32
	if ctl.Left {
		torque -= p.steerTorque
	}
	if ctl.Right {
		torque += p.steerTorque
	}
	speedSq := c.Vel.X*c.Vel.X + c.Vel.Y*c.Vel.Y
	torque *= clampFloat(speedSq/p.steerRefSq, 0, 1)

	w := c.Rot.AngVel
	torque -= w * abs32(w) * p.angDragQuad
	torque -= w * p.angDragLin

	torque += c.Forces.Torque
	c.Forces.Torque = 0

	c.Rot.AngVel += torque / c.Body.Mass * dt
	if !finite(c.Rot.AngVel) {
		c.Rot.AngVel = 0
	}
	c.Rot.Heading = NormalizeRotation(c.Rot.Heading + c.Rot.AngVel*dt/180*math.Pi)
}

// UpdateVelocity applies thrust, friction and injected force, then drags the
// velocity vector toward the wheel direction.
func (p *Physics) UpdateVelocity(c Car, dt float32, surface track.Kind, engineForce float32) {
	mat := surface.Material()
	accelerating := c.Driver.Controls.Accelerate
	wx, wy := c.Rot.Facing()
	vx, vy := c.Vel.X, c.Vel.Y
	speedSq := vx*vx + vy*vy
	speed := float32(math.Sqrt(float64(speedSq)))

	var fx, fy float32
	if accelerating {
		fx = wx * engineForce
		fy = wy * engineForce
	}

	frX, frY := p.Friction(c, fx, fy, wx, wy, speed, mat)
	fx += frX + c.Forces.X
	fy += frY + c.Forces.Y
	c.Forces.X, c.Forces.Y = 0, 0

	newX := vx + fx/c.Body.Mass*dt
	newY := vy + fy/c.Body.Mass*dt

	c.Driver.BlendAngle = 0
	if speedSq != 0 && c.Rot.AngVel != 0 {
		cos := float64((wx*vx + wy*vy) / speed)
		angle := float32(math.Acos(cos))
		if c.Rot.AngVel < 0 {
			angle = -angle
		}
		if finite(angle) {
			c.Driver.BlendAngle = angle
			if angle != 0 && speedSq > p.minBlendSq {
				newX, newY = p.blend(newX, newY, angle, dt)
			}
		}
	}

	// Friction must not push a coasting car into reverse.
	if !accelerating {
		if (newX < 0 && vx > 0) || (newX > 0 && vx < 0) {
			newX = 0
		}
		if (newY < 0 && vy > 0) || (newY > 0 && vy < 0) {
			newY = 0
		}
	}

	if !finite(newX) || !finite(newY) {
		newX, newY = 0, 0
	}
	c.Vel.X, c.Vel.Y = newX, newY
}

// blend mixes the velocity rotated by angle with the unrotated velocity,
// weighting the unrotated part by rotation_mix / dt.
func (p *Physics) blend(x, y, angle, dt float32) (float32, float32) {
	mix := p.rotationMix / dt
	s64, c64 := math.Sincos(float64(angle))
	s, c := float32(s64), float32(c64)
	rx := x*c - y*s
	ry := x*s + y*c
	return (rx + x*mix) / (mix + 1), (ry + y*mix) / (mix + 1)
}

// Friction returns the combined rolling, braking, air and ground resistance
// for the car's current velocity. forceX/forceY is the thrust already applied
// this tick and (wx, wy) the unit wheel direction.
func (p *Physics) Friction(c Car, forceX, forceY, wx, wy, speed float32, mat track.Material) (float32, float32) {
	vx, vy := c.Vel.X, c.Vel.Y
	if vx == 0 && vy == 0 {
		return 0, 0
	}
	dx, dy := vx/speed, vy/speed
	mass := c.Body.Mass

	rolling := mat.RollingResistance * mass * p.gravity / p.rollingDiv
	fX := -vx * rolling
	fY := -vy * rolling

	if c.Driver.Controls.Brake {
		fX -= p.brakeForce * dx
		fY -= p.brakeForce * dy
	}

	if fX > forceX && vx == 0 {
		fX = forceX
	}
	if fY > forceY && vy == 0 {
		fY = forceY
	}

	air := p.airDrag * speed * speed * mat.AirResistanceMultiplier
	fX -= air * dx
	fY -= air * dy

	slip := abs32(1 - (dx*wx + dy*wy))
	ground := mat.GroundResistance * mass * p.gravity * slip
	fX -= ground * dx
	fY -= ground * dy

	return fX, fY
}

// UpdatePosition integrates position, clamps it to the world bounds and adds
// the squared displacement to the odometer for surface.
func (p *Physics) UpdatePosition(c Car, dt float32, surface track.Kind) {
	newX := clampFloat(c.Pos.X+c.Vel.X*dt, 0, p.width)
	newY := clampFloat(c.Pos.Y+c.Vel.Y*dt, 0, p.height)
	if !finite(newX) || !finite(newY) {
		return
	}

	dx, dy := newX-c.Pos.X, newY-c.Pos.Y
	dist := dx*dx + dy*dy
	if surface == track.Tarmac {
		c.Odo.Tarmac += dist
	} else {
		c.Odo.Grass += dist
	}
	c.Pos.X, c.Pos.Y = newX, newY
}
