package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/internal/config"
	"github.com/pongarena/pong-backend/internal/httpapi"
	"github.com/pongarena/pong-backend/internal/hub"
	"github.com/pongarena/pong-backend/internal/lobby"
	"github.com/pongarena/pong-backend/internal/logging"
	"github.com/pongarena/pong-backend/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogFile)
	defer func() { _ = log.Sync() }()

	repo := openRepository(cfg, log)

	ctx := context.Background()
	h := hub.NewHub(ctx)

	f := &lobbyFactory{
		ctx:  ctx,
		hub:  h,
		repo: repo,
		log:  log,
		cfg: lobby.Config{
			ScoreLimit:      cfg.ScoreLimit,
			TickRate:        cfg.TickRate,
			CheckpointEvery: time.Duration(cfg.CheckpointSeconds) * time.Second,
		},
	}

	handler := httpapi.SetupRoutes(httpapi.Deps{Hub: h, Factory: f, Log: log})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		log.Infow("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	h.Inbox() <- hub.ShutdownHub{}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openRepository connects postgres when a DSN is configured, otherwise
// falls back to the in-memory store so the server runs standalone.
func openRepository(cfg *config.Config, log *zap.SugaredLogger) store.Repository {
	if cfg.DatabaseDSN == "" {
		log.Info("no DATABASE_DSN, using in-memory repository")
		return store.NewMemory()
	}
	repo, err := store.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Warnw("postgres unavailable, using in-memory repository", "err", err)
		return store.NewMemory()
	}
	log.Info("connected to postgres")
	return repo
}

// lobbyFactory wires new lobbies into the hub. This is the only place
// that knows both sides; lobbies and transports stay decoupled.
type lobbyFactory struct {
	ctx  context.Context
	hub  *hub.Hub
	repo store.Repository
	cfg  lobby.Config
	log  *zap.SugaredLogger
}

func (f *lobbyFactory) CreateGame(name, password string) *lobby.GameLobby {
	gl := lobby.NewGame(f.ctx, lobby.GameOptions{
		ID:       uuid.NewString(),
		Name:     name,
		Password: password,
		Config:   f.cfg,
		Repo:     f.repo,
		Log:      f.log,
		OnEmpty:  f.remove,
	})
	f.hub.Inbox() <- hub.Register{L: gl}
	return gl
}

func (f *lobbyFactory) CreateTournament(name, password string, maxPlayers int) (*lobby.TournamentLobby, error) {
	if _, ok := store.RoundsFor(maxPlayers); !ok {
		return nil, store.ErrParticipantCount
	}
	tl := lobby.NewTournament(f.ctx, lobby.TournamentOptions{
		ID:         uuid.NewString(),
		Name:       name,
		Password:   password,
		MaxPlayers: maxPlayers,
		Config:     f.cfg,
		Repo:       f.repo,
		Log:        f.log,
		OnEmpty:    f.remove,
		Register:   func(h lobby.Handle) { f.hub.Inbox() <- hub.Register{L: h} },
		Unregister: f.remove,
	})
	f.hub.Inbox() <- hub.Register{L: tl}
	return tl, nil
}

func (f *lobbyFactory) remove(id string) {
	f.hub.Inbox() <- hub.Remove{ID: id}
}
