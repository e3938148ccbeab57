package components

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestCornersAxisAligned(t *testing.T) {
	c := Corners(Position{X: 100, Y: 50}, Rotation{Heading: 0}, Body{Width: 8, Height: 4})
	want := [4]Position{
		{X: 96, Y: 48},
		{X: 96, Y: 52},
		{X: 104, Y: 48},
		{X: 104, Y: 52},
	}
	for i := range want {
		if !near(c[i].X, want[i].X) || !near(c[i].Y, want[i].Y) {
			t.Errorf("corner %d = %+v, want %+v", i, c[i], want[i])
		}
	}
}

func TestCornersRotated(t *testing.T) {
	c := Corners(Position{X: 0, Y: 0}, Rotation{Heading: math.Pi / 2}, Body{Width: 8, Height: 4})
	// Facing +y: the front corners sit at y = +4.
	if !near(c[2].Y, 4) || !near(c[3].Y, 4) {
		t.Errorf("front corners %+v %+v should be at y=4", c[2], c[3])
	}
	if !near(c[0].Y, -4) || !near(c[1].Y, -4) {
		t.Errorf("rear corners %+v %+v should be at y=-4", c[0], c[1])
	}
}
