package game

import "math/rand"

// BallRadius never changes after a ball is created.
const BallRadius = 10.0

// BaseBallSpeed is the per-axis speed a fresh ball starts with, in
// field units per tick.
const BaseBallSpeed = 6.0

type Ball struct {
	X, Y   float64
	VX, VY float64
	Radius float64
}

// NewBall centers a ball at mid-field and randomizes the sign of each
// velocity axis independently, so all four quadrants are equally likely.
func NewBall(rng *rand.Rand) *Ball {
	b := &Ball{
		X:      FieldWidth / 2,
		Y:      FieldHeight / 2,
		VX:     BaseBallSpeed,
		VY:     BaseBallSpeed,
		Radius: BallRadius,
	}
	if rng.Intn(2) == 0 {
		b.VX = -b.VX
	}
	if rng.Intn(2) == 0 {
		b.VY = -b.VY
	}
	return b
}
