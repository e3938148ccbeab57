package game

import (
	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/neural"
)

// CarView is the read-only per-car state handed to renderers.
type CarView struct {
	ID          uint32
	Pos         components.Position
	Heading     float32
	Width       float32
	Height      float32
	Corners     [4]components.Position
	Colour      [3]uint8
	Disabled    bool
	WasSelected bool
	BlendAngle  float32
	Tarmac      float32
}

// Snapshot appends a view of every car to dst in population order.
func (e *Engine) Snapshot(dst []CarView) []CarView {
	dst = dst[:0]
	for _, entity := range e.cars {
		pos, _, rot, body, _, odo, driver := e.carMapper.Get(entity)
		dst = append(dst, CarView{
			ID:          driver.ID,
			Pos:         *pos,
			Heading:     rot.Heading,
			Width:       body.Width,
			Height:      body.Height,
			Corners:     components.Corners(*pos, *rot, *body),
			Colour:      driver.Colour,
			Disabled:    driver.Disabled,
			WasSelected: driver.WasSelected,
			BlendAngle:  driver.BlendAngle,
			Tarmac:      odo.Tarmac,
		})
	}
	return dst
}

// Brain returns the controller of car id, or nil if it no longer exists.
func (e *Engine) Brain(id uint32) *neural.Network {
	return e.brains[id]
}

// CarDetail is the per-car state shown by the inspector.
type CarDetail struct {
	ID       uint32
	Sensors  []float32
	Controls components.Controls
	Velocity components.Velocity
	AngVel   float32
	Odometer components.Odometer
	Brain    *neural.Network
}

// Detail returns inspector data for car id. Sensors is a copy.
func (e *Engine) Detail(id uint32) (CarDetail, bool) {
	for _, entity := range e.cars {
		_, vel, rot, _, _, odo, driver := e.carMapper.Get(entity)
		if driver.ID != id {
			continue
		}
		return CarDetail{
			ID:       id,
			Sensors:  append([]float32(nil), driver.Sensors...),
			Controls: driver.Controls,
			Velocity: *vel,
			AngVel:   rot.AngVel,
			Odometer: *odo,
			Brain:    e.brains[id],
		}, true
	}
	return CarDetail{}, false
}

// CarAt returns the id of the car whose centre is nearest to (x, y) within
// radius world units. Racing cars win over disabled ones.
func (e *Engine) CarAt(x, y, radius float32) (uint32, bool) {
	for _, wantDisabled := range []bool{false, true} {
		var (
			best  uint32
			bestD = radius * radius
			found bool
		)
		for _, entity := range e.cars {
			pos, _, _, _, _, _, driver := e.carMapper.Get(entity)
			if driver.Disabled != wantDisabled {
				continue
			}
			dx, dy := pos.X-x, pos.Y-y
			if d := dx*dx + dy*dy; d <= bestD {
				best, bestD, found = driver.ID, d, true
			}
		}
		if found {
			return best, true
		}
	}
	return 0, false
}
