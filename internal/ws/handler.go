// Package ws adapts parsed client messages onto lobby inboxes and
// fans lobby broadcasts back out. It never touches lobby state
// directly.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/internal/game"
	"github.com/pongarena/pong-backend/internal/hub"
	"github.com/pongarena/pong-backend/internal/lobby"
	"github.com/pongarena/pong-backend/pkg/types"
)

type Deps struct {
	Hub     *hub.Hub
	Factory lobby.Factory
	Log     *zap.SugaredLogger
}

func Handler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		client := newClientConn(r.Context(), conn, d.Log)
		defer client.close()

		s := &session{deps: d, client: client, joined: make(map[string]*lobby.Player)}
		defer s.leaveAll()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					d.Log.Debugw("socket read ended", "err", err)
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				// Bad frames never touch lobby state; the connection
				// stays open.
				s.sendError("bad json")
				continue
			}
			s.handle(cm)
		}
	}
}

// session tracks which lobbies this connection has seats in.
type session struct {
	deps   Deps
	client *clientConn
	joined map[string]*lobby.Player // lobby id -> our seat
}

func (s *session) handle(cm types.ClientMessage) {
	switch cm.Type {
	case "createLobby":
		s.createLobby(cm)
	case "createTournament":
		s.createTournament(cm)
	case "joinLobby":
		s.joinLobby(cm)
	case "leaveLobby":
		s.leaveLobby(cm)
	case "ready":
		s.setReady(cm)
	case "startGame":
		s.forward(cm.LobbyID, lobby.Start{From: s.client})
	case "stopGame":
		s.forward(cm.LobbyID, lobby.Stop{})
	case "pauseGame":
		s.forward(cm.LobbyID, lobby.Pause{})
	case "resumeGame":
		s.forward(cm.LobbyID, lobby.Resume{})
	case "movePaddle":
		s.movePaddle(cm)
	case "getLobbyList":
		s.lobbyList()
	case "getLobbyState":
		s.lobbyState(cm)
	default:
		s.sendError("unknown type")
	}
}

func (s *session) createLobby(cm types.ClientMessage) {
	gl := s.deps.Factory.CreateGame(cm.Name, cm.Password)
	s.send(describe(gl).Wire())
}

func (s *session) createTournament(cm types.ClientMessage) {
	maxPlayers := cm.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = 8
	}
	tl, err := s.deps.Factory.CreateTournament(cm.Name, cm.Password, maxPlayers)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.send(describe(tl).Wire())
}

func (s *session) joinLobby(cm types.ClientMessage) {
	lb := s.deps.Hub.GetLobby(cm.LobbyID)
	if lb == nil {
		s.sendError("lobby not found")
		return
	}
	reply := make(chan *lobby.Player, 1)
	lb.Inbox() <- lobby.Join{
		Conn:     s.client,
		UserID:   cm.UserID,
		Password: cm.Password,
		Reply:    reply,
	}
	p := <-reply
	if p == nil {
		s.sendError("cannot join lobby")
		return
	}
	s.joined[cm.LobbyID] = p
}

func (s *session) leaveLobby(cm types.ClientMessage) {
	p, ok := s.joined[cm.LobbyID]
	if !ok {
		return
	}
	delete(s.joined, cm.LobbyID)
	if lb := s.deps.Hub.GetLobby(cm.LobbyID); lb != nil {
		lb.Inbox() <- lobby.Leave{Seat: p.Seat}
	}
}

func (s *session) leaveAll() {
	for id, p := range s.joined {
		if lb := s.deps.Hub.GetLobby(id); lb != nil {
			lb.Inbox() <- lobby.Leave{Seat: p.Seat}
		}
	}
	clear(s.joined)
}

func (s *session) setReady(cm types.ClientMessage) {
	p, ok := s.joined[cm.LobbyID]
	if !ok {
		return
	}
	s.forward(cm.LobbyID, lobby.SetReady{Seat: p.Seat, Ready: cm.Ready})
}

func (s *session) movePaddle(cm types.ClientMessage) {
	var dir game.Direction
	switch cm.Direction {
	case "up":
		dir = game.DirUp
	case "down":
		dir = game.DirDown
	default:
		return
	}

	// movePaddle may name a child match lobby the session never
	// joined; with no lobby id it falls back to the session's only
	// joined lobby.
	lobbyID := cm.LobbyID
	if lobbyID == "" && len(s.joined) == 1 {
		for id := range s.joined {
			lobbyID = id
		}
	}
	s.forward(lobbyID, lobby.Input{UserID: cm.UserID, Conn: s.client, Direction: dir})
}

func (s *session) lobbyList() {
	handles := s.deps.Hub.ListLobbies()
	infos := make([]types.LobbyInfo, 0, len(handles))
	for _, h := range handles {
		infos = append(infos, describe(h).Wire())
	}
	s.send(types.LobbyList{Type: "lobbyList", Lobbies: infos})
}

func (s *session) lobbyState(cm types.ClientMessage) {
	lb := s.deps.Hub.GetLobby(cm.LobbyID)
	if lb == nil {
		s.sendError("lobby not found")
		return
	}
	s.send(describe(lb).Wire())
}

func (s *session) forward(lobbyID string, m lobby.Msg) {
	lb := s.deps.Hub.GetLobby(lobbyID)
	if lb == nil {
		return
	}
	lb.Inbox() <- m
}

func (s *session) send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.client.Send(payload)
}

func (s *session) sendError(msg string) {
	s.send(types.ErrorMessage{Type: "error", Error: msg})
}

func describe(h lobby.Handle) lobby.Info {
	reply := make(chan lobby.Info, 1)
	h.Inbox() <- lobby.GetInfo{Reply: reply}
	return <-reply
}
