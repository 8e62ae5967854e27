package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pongarena/pong-backend/internal/game"
	"github.com/pongarena/pong-backend/internal/logging"
	"github.com/pongarena/pong-backend/internal/store"
)

// fastCfg keeps test matches snappy without changing semantics.
func fastCfg(scoreLimit int) Config {
	return Config{
		ScoreLimit:      scoreLimit,
		TickRate:        250,
		CheckpointEvery: 20 * time.Millisecond,
	}
}

func startedPair(t *testing.T, g *GameLobby) (*fakeConn, *fakeConn) {
	t.Helper()
	c1, c2 := &fakeConn{}, &fakeConn{}
	require.NotNil(t, join(t, g, c1, "u1"))
	require.NotNil(t, join(t, g, c2, "u2"))
	g.Inbox() <- Start{}
	require.True(t, barrier(t, g).Started)
	return c1, c2
}

func TestStartGame_RequiresBothSeats(t *testing.T) {
	g := testGame(t, fastCfg(5))
	join(t, g, &fakeConn{}, "u1")

	g.Inbox() <- Start{}
	assert.False(t, barrier(t, g).Started, "one player cannot start a match")
}

func TestStartGame_BroadcastsAndDrivesTicks(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	assert.Equal(t, 1, c1.count("gameStarted"))
	require.Eventually(t, func() bool {
		return c1.count("update") >= 3
	}, time.Second, 5*time.Millisecond, "tick driver should stream snapshots")
}

func TestStartGame_Idempotent(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	g.Inbox() <- Start{}
	barrier(t, g)
	assert.Equal(t, 1, c1.count("gameStarted"), "second start is a no-op")
}

func TestWin_SingleGameOverAndPersistedWinner(t *testing.T) {
	g := testGame(t, fastCfg(1))
	c1, _ := startedPair(t, g)
	mem := g.repo.(*store.Memory)

	// The record id arrives asynchronously after start; wait for it so
	// the final persist has somewhere to land.
	require.Eventually(t, func() bool {
		var ready bool
		runInLoop(t, g.Lobby, func() { ready = g.recordID != 0 })
		return ready
	}, time.Second, 5*time.Millisecond)

	// Put the ball past seat one's edge; the next tick scores for
	// seat two, which reaches the limit of one.
	runInLoop(t, g.Lobby, func() {
		g.eng.PlaceBall(-1, game.FieldHeight/2, game.BaseBallSpeed, 0)
	})

	require.Eventually(t, func() bool {
		return c1.count("gameOver") == 1
	}, time.Second, 5*time.Millisecond)

	msgs := c1.received("gameOver")
	assert.Equal(t, float64(2), msgs[0]["winnerId"])
	assert.Equal(t, "u2", msgs[0]["winningUserId"])
	assert.Equal(t, float64(1), msgs[0]["player2Score"])

	// The terminal transition fires exactly once.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c1.count("gameOver"))

	require.Eventually(t, func() bool {
		rec, ok := mem.MatchByID(1)
		return ok && rec.WinnerID == "u2" && rec.Score2 == 1
	}, time.Second, 5*time.Millisecond, "final result reaches the repository")
}

func TestStopGame_IdempotentSingleBroadcast(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	g.Inbox() <- Stop{}
	g.Inbox() <- Stop{}
	info := barrier(t, g)

	assert.False(t, info.Started)
	assert.Equal(t, 1, c1.count("gameStopped"), "double stop broadcasts once")
}

func TestDisconnect_AutoPausesInsteadOfForfeiting(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	g.Inbox() <- Leave{Seat: 2}
	barrier(t, g)

	assert.Equal(t, 1, c1.count("gamePaused"))
	info := barrier(t, g)
	assert.True(t, info.Started, "match survives the disconnect, paused")

	runInLoop(t, g.Lobby, func() {
		assert.True(t, g.eng.Paused())
	})
}

func TestPauseResume_Broadcasts(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	g.Inbox() <- Pause{}
	g.Inbox() <- Pause{} // pausing twice is a no-op
	g.Inbox() <- Resume{}
	barrier(t, g)

	assert.Equal(t, 1, c1.count("gamePaused"))
	assert.Equal(t, 1, c1.count("gameResumed"))
}

func TestInput_MovesOnlyTheCallersPaddle(t *testing.T) {
	g := testGame(t, fastCfg(5))
	startedPair(t, g)

	g.Inbox() <- Input{UserID: "u2", Direction: game.DirDown}
	barrier(t, g)

	runInLoop(t, g.Lobby, func() {
		snap := g.eng.Snapshot()
		assert.Equal(t, (game.FieldHeight-game.PaddleHeight)/2, snap.Paddle1.Y)
		assert.Equal(t, (game.FieldHeight-game.PaddleHeight)/2+game.PaddleSpeed, snap.Paddle2.Y)
	})
}

// gatedMatchRepo holds CreateMatchRecord until released, so the id can
// be made to arrive at an inconvenient moment.
type gatedMatchRepo struct {
	*store.Memory
	gate chan struct{}
}

func (r *gatedMatchRepo) CreateMatchRecord(ctx context.Context, p1, p2 string) (uint, error) {
	<-r.gate
	return r.Memory.CreateMatchRecord(ctx, p1, p2)
}

func TestRecordID_SurvivesFullInbox(t *testing.T) {
	repo := &gatedMatchRepo{Memory: store.NewMemory(), gate: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	g := NewGame(ctx, GameOptions{
		ID:     "g1",
		Config: fastCfg(5),
		Repo:   repo,
		Log:    logging.NewNop(),
	})
	require.NotNil(t, join(t, g, &fakeConn{}, "u1"))
	require.NotNil(t, join(t, g, &fakeConn{}, "u2"))
	g.Inbox() <- Start{}

	// Park the loop, then stuff the inbox to capacity.
	entered := make(chan struct{})
	release := make(chan struct{})
	g.inbox <- exec{fn: func() { close(entered); <-release }, done: make(chan struct{})}
	<-entered
filling:
	for {
		select {
		case g.inbox <- Pause{}:
		default:
			break filling
		}
	}

	// The record id now arrives against a full inbox. It must queue
	// up rather than being dropped.
	close(repo.gate)
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool {
		var ready bool
		runInLoop(t, g.Lobby, func() { ready = g.recordID != 0 })
		return ready
	}, time.Second, 5*time.Millisecond)
}

func TestRestart_NoStaleDriverTicks(t *testing.T) {
	g := testGame(t, fastCfg(5))
	c1, _ := startedPair(t, g)

	g.Inbox() <- Stop{}
	g.Inbox() <- Start{}
	require.True(t, barrier(t, g).Started)

	// Only the new driver's generation may tick the engine; stray
	// messages from the old one are discarded by generation check.
	before := c1.count("update")
	require.Eventually(t, func() bool {
		return c1.count("update") > before
	}, time.Second, 5*time.Millisecond)
}
