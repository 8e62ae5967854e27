package lobby

import (
	"time"

	"github.com/pongarena/pong-backend/pkg/types"
)

// Conn is the transport's send capability for one member. Send must
// never block: a slow socket is the transport's problem, not the
// lobby's.
type Conn interface {
	Send(payload []byte)
}

// Player is one seated connection. The lobby owns the seat mapping;
// the transport owns the socket behind Conn.
type Player struct {
	Seat     int
	UserID   string // empty for anonymous play
	Conn     Conn
	JoinedAt time.Time
}

func (p *Player) info(ready bool) types.PlayerInfo {
	return types.PlayerInfo{PlayerID: p.Seat, UserID: p.UserID, Ready: ready}
}

// Info is the reply to GetInfo.
type Info struct {
	ID         string
	Name       string
	LobbyType  string
	MaxPlayers int
	CreatorID  string
	Started    bool
	Players    []types.PlayerInfo
}

func (i Info) Wire() types.LobbyInfo {
	return types.LobbyInfo{
		Type:       "lobbyInfo",
		ID:         i.ID,
		Name:       i.Name,
		Players:    i.Players,
		CreatorID:  i.CreatorID,
		MaxPlayers: i.MaxPlayers,
		LobbyType:  i.LobbyType,
		Started:    i.Started,
	}
}
