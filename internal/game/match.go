// Package game holds the authoritative Pong simulation. It is pure
// state + update rules: no I/O, no clocks, no goroutines. The lobby
// layer owns the tick cadence and feeds Tick/MovePaddle calls in.
package game

import (
	"math/rand"
	"time"
)

const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	// SubSteps is how many physics integrations one Tick performs.
	// More sub-steps means finer collision resolution at the same
	// wire tick rate.
	SubSteps = 4

	// SpinGain scales the angular deflection added when the ball
	// strikes a paddle off-center.
	SpinGain = 0.05
)

// Match is the simulation for one 1v1 game. Not safe for concurrent
// use; callers must serialize access (the lobby actor does).
type Match struct {
	ball    *Ball
	paddles [2]*Paddle
	scores  [2]int
	paused  bool
	running bool
	rng     *rand.Rand
}

func NewMatch() *Match {
	m := &Match{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	m.Reset()
	return m
}

// Reset recenters the ball with a re-randomized direction and recreates
// both paddles at mid-height. Scores are untouched; see ResetScores.
func (m *Match) Reset() {
	m.ball = NewBall(m.rng)
	m.paddles[0] = NewPaddle(1)
	m.paddles[1] = NewPaddle(2)
}

func (m *Match) ResetScores() {
	m.scores[0] = 0
	m.scores[1] = 0
}

func (m *Match) Start() { m.running = true }
func (m *Match) Stop()  { m.running = false }

func (m *Match) Pause()       { m.paused = true }
func (m *Match) Resume()      { m.paused = false }
func (m *Match) Paused() bool { return m.paused }

// MovePaddle shifts the named seat's paddle one step; the paddle clamps
// itself to the playfield. Unknown seats are ignored.
func (m *Match) MovePaddle(seat int, dir Direction) {
	if seat != 1 && seat != 2 {
		return
	}
	m.paddles[seat-1].Move(dir)
}

// PlaceBall positions the ball and sets its velocity directly, for
// driving specific scenarios from tests and tooling.
func (m *Match) PlaceBall(x, y, vx, vy float64) {
	m.ball.X = x
	m.ball.Y = y
	m.ball.VX = vx
	m.ball.VY = vy
}

// Tick advances the simulation by SubSteps integrations. A scored point
// resets the ball and ends the tick early. No-op while paused or before
// Start.
func (m *Match) Tick() {
	if m.paused || !m.running {
		return
	}
	for i := 0; i < SubSteps; i++ {
		if point := m.subStep(); point {
			return
		}
	}
}

// subStep integrates once and reports whether a point was scored.
func (m *Match) subStep() bool {
	b := m.ball

	// A ball already past a side bound scores before it moves again,
	// whichever way it is heading.
	if point := m.checkExit(); point {
		return true
	}

	const dt = 1.0 / SubSteps
	b.X += b.VX * dt
	b.Y += b.VY * dt

	// Wall bounce: reflect when the ball's center crosses the bound.
	if b.Y <= 0 {
		b.Y = 0
		b.VY = -b.VY
	} else if b.Y >= FieldHeight {
		b.Y = FieldHeight
		b.VY = -b.VY
	}

	// Paddle collision, checked before the exit test so a save on the
	// goal line can never score in the same sub-step.
	if b.VX < 0 && m.collides(m.paddles[0]) {
		b.VX = -b.VX
		b.VY += (b.Y - m.paddles[0].CenterY()) * SpinGain
	} else if b.VX > 0 && m.collides(m.paddles[1]) {
		b.VX = -b.VX
		b.VY += (b.Y - m.paddles[1].CenterY()) * SpinGain
	}

	return m.checkExit()
}

// checkExit scores the point and resets the ball when it has left the
// field past either side bound.
func (m *Match) checkExit() bool {
	switch {
	case m.ball.X < 0:
		m.scores[1]++
	case m.ball.X > FieldWidth:
		m.scores[0]++
	default:
		return false
	}
	m.Reset()
	return true
}

// collides tests the ball's box (inflated by its radius) against the
// paddle's box. Touching counts as colliding.
func (m *Match) collides(p *Paddle) bool {
	b := m.ball
	return b.X+b.Radius >= p.X &&
		b.X-b.Radius <= p.X+PaddleWidth &&
		b.Y+b.Radius >= p.Y &&
		b.Y-b.Radius <= p.Y+PaddleHeight
}

func (m *Match) Score(seat int) int {
	if seat != 1 && seat != 2 {
		return 0
	}
	return m.scores[seat-1]
}

// BallState and PaddleState are value copies for the wire; they never
// alias the live simulation.
type BallState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type PaddleState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Snapshot struct {
	Ball    BallState   `json:"ball"`
	Paddle1 PaddleState `json:"paddle1"`
	Paddle2 PaddleState `json:"paddle2"`
	Score1  int         `json:"score1"`
	Score2  int         `json:"score2"`
	Paused  bool        `json:"paused"`
	Running bool        `json:"running"`
}

// Snapshot returns an immutable copy of the current state, safe to
// serialize and broadcast from outside the owning goroutine.
func (m *Match) Snapshot() Snapshot {
	return Snapshot{
		Ball: BallState{X: m.ball.X, Y: m.ball.Y, Radius: m.ball.Radius},
		Paddle1: PaddleState{
			X: m.paddles[0].X, Y: m.paddles[0].Y,
			Width: PaddleWidth, Height: PaddleHeight,
		},
		Paddle2: PaddleState{
			X: m.paddles[1].X, Y: m.paddles[1].Y,
			Width: PaddleWidth, Height: PaddleHeight,
		},
		Score1:  m.scores[0],
		Score2:  m.scores[1],
		Paused:  m.paused,
		Running: m.running,
	}
}
