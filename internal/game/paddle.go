package game

const (
	PaddleWidth  = 10.0
	PaddleHeight = 100.0
	PaddleSpeed  = 10.0

	// PaddleMargin is the gap between a paddle and its side wall.
	PaddleMargin = 20.0
)

type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
)

type Paddle struct {
	X, Y float64
}

// NewPaddle places a paddle at mid-height on the given seat's edge
// (seat 1 is the left side, seat 2 the right).
func NewPaddle(seat int) *Paddle {
	x := PaddleMargin
	if seat == 2 {
		x = FieldWidth - PaddleMargin - PaddleWidth
	}
	return &Paddle{X: x, Y: (FieldHeight - PaddleHeight) / 2}
}

// Move shifts the paddle one step in dir, clamped to the playfield.
// The paddle itself owns no bounds; clamping here keeps every caller
// honest about [0, FieldHeight-PaddleHeight].
func (p *Paddle) Move(dir Direction) {
	switch dir {
	case DirUp:
		p.Y -= PaddleSpeed
	case DirDown:
		p.Y += PaddleSpeed
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > FieldHeight-PaddleHeight {
		p.Y = FieldHeight - PaddleHeight
	}
}

// CenterY is the paddle's vertical center, used for deflection math.
func (p *Paddle) CenterY() float64 {
	return p.Y + PaddleHeight/2
}
