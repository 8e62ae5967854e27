package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pongarena/pong-backend/internal/ws"
)

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", CreateLobby(d))
	r.Post("/tournaments", CreateTournament(d))
	r.Get("/lobbies", ListLobbies(d))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(ws.Deps{Hub: d.Hub, Factory: d.Factory, Log: d.Log}))
	return r
}
