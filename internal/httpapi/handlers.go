package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/internal/hub"
	"github.com/pongarena/pong-backend/internal/lobby"
	"github.com/pongarena/pong-backend/pkg/types"
)

type Deps struct {
	Hub     *hub.Hub
	Factory lobby.Factory
	Log     *zap.SugaredLogger
}

type createLobbyRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	MaxPlayers int    `json:"maxPlayers"`
}

func CreateLobby(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		gl := d.Factory.CreateGame(req.Name, req.Password)
		writeJSON(w, http.StatusCreated, struct {
			ID string `json:"id"`
		}{ID: gl.ID()})
	}
}

func CreateTournament(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.MaxPlayers == 0 {
			req.MaxPlayers = 8
		}
		tl, err := d.Factory.CreateTournament(req.Name, req.Password, req.MaxPlayers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			ID string `json:"id"`
		}{ID: tl.ID()})
	}
}

func ListLobbies(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handles := d.Hub.ListLobbies()
		infos := make([]types.LobbyInfo, 0, len(handles))
		for _, h := range handles {
			reply := make(chan lobby.Info, 1)
			h.Inbox() <- lobby.GetInfo{Reply: reply}
			infos = append(infos, (<-reply).Wire())
		}
		writeJSON(w, http.StatusOK, infos)
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
