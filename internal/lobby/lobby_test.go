package lobby

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pongarena/pong-backend/internal/logging"
	"github.com/pongarena/pong-backend/internal/store"
)

// fakeConn records every payload a lobby sends it.
type fakeConn struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *fakeConn) Send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.msgs = append(c.msgs, cp)
}

// received decodes everything seen so far, optionally filtered by type.
func (c *fakeConn) received(msgType string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, raw := range c.msgs {
		var m map[string]any
		if json.Unmarshal(raw, &m) != nil {
			continue
		}
		if msgType == "" || m["type"] == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) count(msgType string) int { return len(c.received(msgType)) }

// helpers: every interaction goes through the inbox, with timeouts so
// tests never hang on a dead actor.

func join(t *testing.T, h Handle, conn Conn, userID string) *Player {
	t.Helper()
	reply := make(chan *Player, 1)
	h.Inbox() <- Join{Conn: conn, UserID: userID, Reply: reply}
	select {
	case p := <-reply:
		return p
	case <-time.After(time.Second):
		t.Fatalf("timed out joining lobby")
		return nil
	}
}

func joinWithPassword(t *testing.T, h Handle, conn Conn, userID, password string) *Player {
	t.Helper()
	reply := make(chan *Player, 1)
	h.Inbox() <- Join{Conn: conn, UserID: userID, Password: password, Reply: reply}
	select {
	case p := <-reply:
		return p
	case <-time.After(time.Second):
		t.Fatalf("timed out joining lobby")
		return nil
	}
}

// barrier flushes the inbox: once the reply arrives, every message
// sent before it has been processed.
func barrier(t *testing.T, h Handle) Info {
	t.Helper()
	reply := make(chan Info, 1)
	h.Inbox() <- GetInfo{Reply: reply}
	select {
	case info := <-reply:
		return info
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for lobby info")
		return Info{}
	}
}

// runInLoop executes fn inside the actor for race-free inspection.
func runInLoop(t *testing.T, l *Lobby, fn func()) {
	t.Helper()
	done := make(chan struct{})
	l.inbox <- exec{fn: fn, done: done}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out executing in lobby loop")
	}
}

func testGame(t *testing.T, cfg Config) *GameLobby {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewGame(ctx, GameOptions{
		ID:     "g1",
		Name:   "test game",
		Config: cfg,
		Repo:   store.NewMemory(),
		Log:    logging.NewNop(),
	})
}

func TestAddPlayer_FullLobbyReturnsNoSeat(t *testing.T) {
	g := testGame(t, Config{})

	require.NotNil(t, join(t, g, &fakeConn{}, "u1"))
	require.NotNil(t, join(t, g, &fakeConn{}, "u2"))

	assert.Nil(t, join(t, g, &fakeConn{}, "u3"), "full lobby must refuse a third seat")
	assert.Len(t, barrier(t, g).Players, 2, "membership unchanged")
}

func TestAddPlayer_DuplicateUserRefused(t *testing.T) {
	g := testGame(t, Config{})

	require.NotNil(t, join(t, g, &fakeConn{}, "u1"))
	assert.Nil(t, join(t, g, &fakeConn{}, "u1"))
}

func TestAddPlayer_PasswordChecked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	g := NewGame(ctx, GameOptions{
		ID:       "g1",
		Password: "hunter2",
		Repo:     store.NewMemory(),
		Log:      logging.NewNop(),
	})

	assert.Nil(t, joinWithPassword(t, g, &fakeConn{}, "u1", "wrong"))
	assert.NotNil(t, joinWithPassword(t, g, &fakeConn{}, "u1", "hunter2"))
}

func TestAddPlayer_AnonymousAllowedAndSeatsOrdinal(t *testing.T) {
	g := testGame(t, Config{})

	p1 := join(t, g, &fakeConn{}, "")
	p2 := join(t, g, &fakeConn{}, "u2")
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	assert.Equal(t, 1, p1.Seat)
	assert.Equal(t, 2, p2.Seat)

	// The first identified member becomes creator, not seat one.
	assert.Equal(t, "u2", barrier(t, g).CreatorID)
}

func TestJoin_BroadcastsToExistingAndSnapshotsNewcomer(t *testing.T) {
	g := testGame(t, Config{})
	c1, c2 := &fakeConn{}, &fakeConn{}

	join(t, g, c1, "u1")
	join(t, g, c2, "u2")
	barrier(t, g)

	require.Equal(t, 1, c1.count("playerJoined"), "existing member sees the join")
	assert.Zero(t, c2.count("playerJoined"), "newcomer gets a snapshot instead")
	require.Equal(t, 1, c2.count("lobbyInfo"))

	info := c2.received("lobbyInfo")[0]
	assert.Equal(t, "game", info["lobbyType"])
}

func TestRemovePlayer_CreatorHandoff(t *testing.T) {
	g := testGame(t, Config{})
	c1, c2 := &fakeConn{}, &fakeConn{}

	p1 := join(t, g, c1, "u1")
	join(t, g, c2, "u2")

	g.Inbox() <- Leave{Seat: p1.Seat}
	info := barrier(t, g)

	assert.Equal(t, "u2", info.CreatorID)
	msgs := c2.received("newCreator")
	require.Len(t, msgs, 1)
	assert.Equal(t, "u2", msgs[0]["creatorId"])
	assert.Equal(t, float64(2), msgs[0]["creatorPlayerId"])
}

func TestSetReady_LastSeatTriggersSingleAllPlayersReady(t *testing.T) {
	g := testGame(t, Config{})
	c1, c2 := &fakeConn{}, &fakeConn{}

	p1 := join(t, g, c1, "u1")
	p2 := join(t, g, c2, "u2")

	g.Inbox() <- SetReady{Seat: p1.Seat, Ready: true}
	barrier(t, g)
	assert.Zero(t, c1.count("allPlayersReady"), "one ready is not all ready")

	g.Inbox() <- SetReady{Seat: p2.Seat, Ready: true}
	barrier(t, g)
	assert.Equal(t, 1, c1.count("allPlayersReady"))
	assert.Equal(t, 1, c2.count("allPlayersReady"))

	readies := c1.received("playerReady")
	require.Len(t, readies, 2)
	assert.Equal(t, float64(2), readies[1]["readyCount"])
}

func TestCanJoin_Predicate(t *testing.T) {
	g := testGame(t, Config{})
	join(t, g, &fakeConn{}, "u1")

	runInLoop(t, g.Lobby, func() {
		assert.True(t, g.CanJoin("u2", ""))
		assert.False(t, g.CanJoin("u1", ""), "user already holds a seat")
	})

	join(t, g, &fakeConn{}, "u2")
	runInLoop(t, g.Lobby, func() {
		assert.False(t, g.CanJoin("u3", ""), "lobby is full")
	})
}
