// Package types holds the JSON wire protocol: the inbound
// ClientMessage envelope and one struct per outbound event, each
// discriminated by its `type` field. Clients code against these
// shapes.
package types

import (
	"github.com/pongarena/pong-backend/internal/game"
	"github.com/pongarena/pong-backend/internal/store"
)

// ClientMessage is every inbound frame; Type discriminates which of
// the optional fields matter.
type ClientMessage struct {
	Type       string `json:"type"`
	LobbyID    string `json:"lobbyId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
	Ready      bool   `json:"ready,omitempty"`
	Direction  string `json:"direction,omitempty"`
	GameIsOver bool   `json:"gameIsOver,omitempty"`
}

type PlayerInfo struct {
	PlayerID int    `json:"playerId"`
	UserID   string `json:"userId,omitempty"`
	Ready    bool   `json:"ready"`
}

type LobbyInfo struct {
	Type       string       `json:"type"` // "lobbyInfo"
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Players    []PlayerInfo `json:"players"`
	CreatorID  string       `json:"creatorId,omitempty"`
	MaxPlayers int          `json:"maxPlayers"`
	LobbyType  string       `json:"lobbyType"` // "game" | "tournament"
	Started    bool         `json:"started"`
}

type LobbyList struct {
	Type    string      `json:"type"` // "lobbyList"
	Lobbies []LobbyInfo `json:"lobbies"`
}

type PlayerJoined struct {
	Type        string     `json:"type"` // "playerJoined"
	PlayerID    int        `json:"playerId"`
	PlayerCount int        `json:"playerCount"`
	PlayerInfo  PlayerInfo `json:"playerInfo"`
}

type PlayerDisconnected struct {
	Type        string `json:"type"` // "playerDisconnected"
	ID          int    `json:"id"`
	PlayerCount int    `json:"playerCount"`
}

type NewCreator struct {
	Type            string `json:"type"` // "newCreator"
	CreatorID       string `json:"creatorId"`
	CreatorPlayerID int    `json:"creatorPlayerId"`
}

type PlayerReady struct {
	Type       string `json:"type"` // "playerReady"
	PlayerID   int    `json:"playerId"`
	Ready      bool   `json:"ready"`
	ReadyCount int    `json:"readyCount"`
}

type AllPlayersReady struct {
	Type string `json:"type"` // "allPlayersReady"
}

type GameStarted struct {
	Type string `json:"type"` // "gameStarted"
}

type GameUpdate struct {
	Type  string        `json:"type"` // "update"
	State game.Snapshot `json:"state"`
}

type GamePaused struct {
	Type string `json:"type"` // "gamePaused"
}

type GameResumed struct {
	Type string `json:"type"` // "gameResumed"
}

type GameOver struct {
	Type          string `json:"type"` // "gameOver"
	WinnerID      int    `json:"winnerId"`
	WinningUserID string `json:"winningUserId,omitempty"`
	Player1Score  int    `json:"player1Score"`
	Player2Score  int    `json:"player2Score"`
}

type GameStopped struct {
	Type string `json:"type"` // "gameStopped"
}

type TournamentStarted struct {
	Type         string        `json:"type"` // "tournamentStarted"
	TournamentID uint          `json:"tournamentId"`
	Bracket      store.Bracket `json:"bracket"`
	Rounds       int           `json:"rounds"`
}

type MatchStarted struct {
	Type        string `json:"type"` // "matchStarted"
	MatchID     string `json:"matchId"`
	RoundNumber int    `json:"roundNumber"`
	Player1ID   string `json:"player1Id"`
	Player2ID   string `json:"player2Id"`
}

type TournamentOver struct {
	Type     string `json:"type"` // "tournamentOver"
	WinnerID string `json:"winnerId"`
}

type TournamentStopped struct {
	Type string `json:"type"` // "tournamentStopped"
}

type ErrorMessage struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}
