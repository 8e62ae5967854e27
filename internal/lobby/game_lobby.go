package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/internal/game"
	"github.com/pongarena/pong-backend/internal/store"
	"github.com/pongarena/pong-backend/pkg/types"
)

const persistTimeout = 5 * time.Second

// GameLobby drives one 1v1 match: the 60 Hz tick driver, win
// detection, score checkpointing and pause handling.
type GameLobby struct {
	*Lobby
	cfg  Config
	eng  *game.Match
	repo store.Repository

	recordID   uint
	ended      bool
	driverGen  int
	driverStop chan struct{}

	// OnComplete, when set, reports the finished match upstream (the
	// tournament glue). Called once per match, inside the actor loop.
	OnComplete func(lobbyID, winnerUserID string, score1, score2 int)
}

// GameOptions configures a new game lobby. Callbacks must be supplied
// here: once the actor loop starts, nothing outside it may touch the
// lobby.
type GameOptions struct {
	ID       string
	Name     string
	Password string
	Config   Config
	Repo     store.Repository
	Log      *zap.SugaredLogger

	// OnEmpty lets the registry discard the lobby after the last
	// member leaves.
	OnEmpty func(id string)
}

func NewGame(parent context.Context, o GameOptions) *GameLobby {
	g := &GameLobby{
		Lobby: newLobby(parent, o.ID, o.Name, 2, o.Password, o.Log),
		cfg:   o.Config.withDefaults(),
		eng:   game.NewMatch(),
		repo:  o.Repo,
	}
	g.OnEmpty = o.OnEmpty
	g.variant = g
	go g.loop()
	return g
}

// newChildGameLobby builds a tournament child with both participants
// pre-seated; no admission, no ready check.
func newChildGameLobby(parent context.Context, id string, cfg Config, repo store.Repository, log *zap.SugaredLogger, p1, p2 *Player, onComplete func(lobbyID, winnerUserID string, score1, score2 int)) *GameLobby {
	g := &GameLobby{
		Lobby:      newLobby(parent, id, id, 2, "", log),
		cfg:        cfg.withDefaults(),
		eng:        game.NewMatch(),
		repo:       repo,
		OnComplete: onComplete,
	}
	g.variant = g
	now := time.Now()
	g.players[1] = &Player{Seat: 1, UserID: p1.UserID, Conn: p1.Conn, JoinedAt: now}
	g.players[2] = &Player{Seat: 2, UserID: p2.UserID, Conn: p2.Conn, JoinedAt: now}
	go g.loop()
	return g
}

func (g *GameLobby) lobbyType() string { return "game" }

func (g *GameLobby) onPlayerAdded(*Player) {}

// onPlayerRemoved auto-pauses a running match. A 1v1 game is never
// auto-forfeited on disconnect; the remaining player waits.
func (g *GameLobby) onPlayerRemoved(*Player) {
	if g.started && !g.ended && !g.eng.Paused() {
		g.pauseGame()
	}
}

func (g *GameLobby) handleStart(_ Conn) {
	if g.started {
		return // idempotent
	}
	if len(g.players) != minPlayersToStart {
		g.log.Infow("start refused, need both seats filled",
			"lobby", g.id, "players", len(g.players))
		return
	}
	g.started = true
	g.ended = false
	g.recordID = 0
	g.eng.ResetScores()
	g.eng.Reset()
	g.eng.Start()

	// Record creation is I/O; run it off-loop and post the id back.
	p1, p2 := g.players[1].UserID, g.players[2].UserID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		id, err := g.repo.CreateMatchRecord(ctx, p1, p2)
		if err != nil {
			g.log.Warnw("match record create failed", "lobby", g.id, "err", err)
			return
		}
		// The id must arrive even through a momentarily full inbox;
		// losing it would silence every later score persist.
		g.postAsync(recordReady{id: id})
	}()

	g.broadcast(types.GameStarted{Type: "gameStarted"})
	g.startDriver()
}

func (g *GameLobby) handleStop() {
	if !g.started {
		return // idempotent
	}
	g.stopDriver()
	g.eng.Stop()
	g.checkpointScores("") // final checkpoint
	g.broadcast(types.GameStopped{Type: "gameStopped"})
	g.started = false
}

func (g *GameLobby) handleMsg(m Msg) bool {
	switch msg := m.(type) {
	case tick:
		if msg.gen == g.driverGen && g.started && !g.ended {
			g.onTick()
		}
	case checkpoint:
		if msg.gen == g.driverGen && g.started && !g.ended {
			g.checkpointScores("")
		}
	case recordReady:
		g.recordID = msg.id
	case Input:
		g.onInput(msg)
	case Pause:
		g.pauseGame()
	case Resume:
		g.resumeGame()
	default:
		return false
	}
	return true
}

func (g *GameLobby) onTick() {
	g.eng.Tick()
	snap := g.eng.Snapshot()
	g.broadcast(types.GameUpdate{Type: "update", State: snap})

	if snap.Score1 >= g.cfg.ScoreLimit || snap.Score2 >= g.cfg.ScoreLimit {
		g.finishGame(snap)
	}
}

// finishGame runs the terminal win transition, exactly once per match.
func (g *GameLobby) finishGame(snap game.Snapshot) {
	g.ended = true
	g.stopDriver()
	g.eng.Stop()

	winnerSeat := 1
	if snap.Score2 >= g.cfg.ScoreLimit {
		winnerSeat = 2
	}
	winnerUser := ""
	if p, ok := g.players[winnerSeat]; ok {
		winnerUser = p.UserID
	}

	g.broadcast(types.GameOver{
		Type:          "gameOver",
		WinnerID:      winnerSeat,
		WinningUserID: winnerUser,
		Player1Score:  snap.Score1,
		Player2Score:  snap.Score2,
	})
	g.persistScores(snap.Score1, snap.Score2, winnerUser)

	if g.OnComplete != nil {
		g.OnComplete(g.id, winnerUser, snap.Score1, snap.Score2)
	}
}

func (g *GameLobby) onInput(in Input) {
	if !g.started || g.ended {
		return
	}
	p := g.findPlayer(in.UserID, in.Conn)
	if p == nil {
		return
	}
	g.eng.MovePaddle(p.Seat, in.Direction)
}

func (g *GameLobby) pauseGame() {
	if !g.started || g.ended || g.eng.Paused() {
		return
	}
	g.eng.Pause()
	g.broadcast(types.GamePaused{Type: "gamePaused"})
	g.checkpointScores("") // pausing forces a checkpoint
}

func (g *GameLobby) resumeGame() {
	if !g.started || g.ended || !g.eng.Paused() {
		return
	}
	g.eng.Resume()
	g.broadcast(types.GameResumed{Type: "gameResumed"})
}

// checkpointScores persists the current score pair without ending the
// match. Best-effort: failures are logged and gameplay continues.
func (g *GameLobby) checkpointScores(winnerID string) {
	snap := g.eng.Snapshot()
	g.persistScores(snap.Score1, snap.Score2, winnerID)
}

func (g *GameLobby) persistScores(score1, score2 int, winnerID string) {
	recordID := g.recordID
	if recordID == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := g.repo.UpdateMatchScore(ctx, recordID, score1, score2, winnerID); err != nil {
			g.log.Warnw("score checkpoint failed", "lobby", g.id, "err", err)
		}
	}()
}

// startDriver launches the fixed-rate tick goroutine. It only posts
// generation-tagged messages; the engine is touched exclusively by the
// actor loop.
func (g *GameLobby) startDriver() {
	g.driverGen++
	gen := g.driverGen
	stop := make(chan struct{})
	g.driverStop = stop
	interval := time.Second / time.Duration(g.cfg.TickRate)

	go func() {
		ticker := time.NewTicker(interval)
		ckpt := time.NewTicker(g.cfg.CheckpointEvery)
		defer ticker.Stop()
		defer ckpt.Stop()
		for {
			select {
			case <-stop:
				return
			case <-g.ctx.Done():
				return
			case <-ticker.C:
				g.post(tick{gen: gen})
			case <-ckpt.C:
				g.post(checkpoint{gen: gen})
			}
		}
	}()
}

// stopDriver cancels the driver and bumps the generation, so a tick
// already queued from the old driver can never reach the engine. A
// restart therefore cannot race a stale driver.
func (g *GameLobby) stopDriver() {
	if g.driverStop != nil {
		close(g.driverStop)
		g.driverStop = nil
	}
	g.driverGen++
}
