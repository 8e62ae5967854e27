package lobby

import (
	"github.com/pongarena/pong-backend/internal/game"
	"github.com/pongarena/pong-backend/internal/store"
)

// Msg is anything a lobby actor processes. All lobby state mutation
// happens inside the actor loop, one message at a time.
type Msg interface{ isLobbyMsg() }

// Join asks for a seat. Reply receives the seated player, or nil when
// the lobby is full, already started, the password is wrong, or the
// user already holds a seat.
type Join struct {
	Conn     Conn
	UserID   string
	Password string
	Reply    chan *Player
}

func (Join) isLobbyMsg() {}

// Leave removes the seat's player. Disconnection is a lifecycle event,
// not an error.
type Leave struct{ Seat int }

func (Leave) isLobbyMsg() {}

type SetReady struct {
	Seat  int
	Ready bool
}

func (SetReady) isLobbyMsg() {}

// Start begins the match or tournament. From, when set, names the
// requesting member's connection so refusals can be answered
// point-to-point.
type Start struct{ From Conn }

func (Start) isLobbyMsg() {}

type Stop struct{}

func (Stop) isLobbyMsg() {}

type Pause struct{}

func (Pause) isLobbyMsg() {}

type Resume struct{}

func (Resume) isLobbyMsg() {}

// Input forwards a movePaddle command. The lobby resolves the seat
// from the user id, falling back to the connection for anonymous
// players.
type Input struct {
	UserID    string
	Conn      Conn
	Direction game.Direction
}

func (Input) isLobbyMsg() {}

// GetInfo replies with a membership snapshot. Tests also use it as a
// barrier: once the reply arrives, every earlier message is processed.
type GetInfo struct{ Reply chan Info }

func (GetInfo) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

// exec runs fn inside the actor loop and closes done; test-only, for
// race-free setup and inspection.
type exec struct {
	fn   func()
	done chan struct{}
}

func (exec) isLobbyMsg() {}

// tick and checkpoint are posted by a game lobby's driver goroutine.
// The generation lets the loop discard strays from a stopped driver.
type tick struct{ gen int }

func (tick) isLobbyMsg() {}

type checkpoint struct{ gen int }

func (checkpoint) isLobbyMsg() {}

// recordReady delivers the persisted match record id created off-loop.
type recordReady struct{ id uint }

func (recordReady) isLobbyMsg() {}

// matchComplete reports a resolved child match to a tournament lobby,
// from the child's completion callback or the forfeit path.
type matchComplete struct {
	childID      string
	winnerUserID string
	score1       int
	score2       int
}

func (matchComplete) isLobbyMsg() {}

// tournamentCreated delivers the persisted tournament and seeded
// bracket created off-loop. The generation lets the loop discard a
// result whose start was cancelled by a stop in the meantime.
type tournamentCreated struct {
	gen          int
	tournamentID uint
	bracket      store.Bracket
	err          error
}

func (tournamentCreated) isLobbyMsg() {}
