// Package hub is the lobby registry: the only cross-lobby shared
// state. It is itself an actor, so registration from tournaments and
// lookups from transport handlers never race.
package hub

import (
	"context"

	"github.com/pongarena/pong-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type Register struct{ L lobby.Handle }

type Get struct {
	ID    string
	Reply chan lobby.Handle
}

type Remove struct{ ID string }

type List struct{ Reply chan []lobby.Handle }

type ShutdownHub struct{}

func (Register) isHubMsg()    {}
func (Get) isHubMsg()         {}
func (Remove) isHubMsg()      {}
func (List) isHubMsg()        {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]lobby.Handle
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]lobby.Handle),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				h.lobbies[msg.L.ID()] = msg.L

			case Get:
				msg.Reply <- h.lobbies[msg.ID] // may be nil

			case Remove:
				delete(h.lobbies, msg.ID)

			case List:
				out := make([]lobby.Handle, 0, len(h.lobbies))
				for _, l := range h.lobbies {
					out = append(out, l)
				}
				msg.Reply <- out

			case ShutdownHub:
				for _, l := range h.lobbies {
					l.Inbox() <- lobby.Shutdown{}
				}
				clear(h.lobbies)
				h.cancel()
			}
		}
	}
}

// GetLobby and ListLobbies wrap the reply-channel dance for callers.

func (h *Hub) GetLobby(id string) lobby.Handle {
	reply := make(chan lobby.Handle, 1)
	h.inbox <- Get{ID: id, Reply: reply}
	return <-reply
}

func (h *Hub) ListLobbies() []lobby.Handle {
	reply := make(chan []lobby.Handle, 1)
	h.inbox <- List{Reply: reply}
	return <-reply
}
