// Package lobby implements the lobby state machines: a shared base
// handling admission, readiness, ownership and broadcast, plus the
// Game and Tournament variants. Every lobby is one actor goroutine
// over a typed-message inbox; nothing mutates lobby or engine state
// from outside that loop.
package lobby

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/pkg/types"
)

const minPlayersToStart = 2

// Config tunes per-match behavior; zero values fall back to defaults.
type Config struct {
	ScoreLimit      int
	TickRate        int
	CheckpointEvery time.Duration
}

func (c Config) withDefaults() Config {
	if c.ScoreLimit <= 0 {
		c.ScoreLimit = 5
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = 10 * time.Second
	}
	return c
}

// variant is the hook set a concrete lobby kind plugs into the base.
// One base contract, two leaf implementations; no deeper chains.
type variant interface {
	lobbyType() string
	onPlayerAdded(p *Player)
	onPlayerRemoved(p *Player)
	handleStart(from Conn)
	handleStop()
	handleMsg(m Msg) bool
}

type Lobby struct {
	id         string
	name       string
	maxPlayers int
	password   string

	players     map[int]*Player // seat -> player
	ready       map[int]bool    // seats currently ready
	creatorID   string
	creatorSeat int
	started     bool
	createdAt   time.Time

	inbox   chan Msg
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.SugaredLogger
	variant variant

	// OnEmpty, when set, is called after the last member leaves so the
	// registry can discard the lobby.
	OnEmpty func(id string)
}

func newLobby(parent context.Context, id, name string, maxPlayers int, password string, log *zap.SugaredLogger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	return &Lobby{
		id:         id,
		name:       name,
		maxPlayers: maxPlayers,
		password:   password,
		players:    make(map[int]*Player),
		ready:      make(map[int]bool),
		createdAt:  time.Now(),
		inbox:      make(chan Msg, 64),
		ctx:        ctx,
		cancel:     cancel,
		log:        log,
	}
}

func (l *Lobby) ID() string        { return l.id }
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// post is the non-blocking inbox write used by driver goroutines. A
// full inbox drops the message rather than stalling the ticker; a
// skipped tick is cheaper than a late one.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	default:
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.variant.handleStop()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.addPlayer(msg)
			case Leave:
				l.removePlayer(msg.Seat)
			case SetReady:
				l.setReady(msg.Seat, msg.Ready)
			case Start:
				l.variant.handleStart(msg.From)
			case Stop:
				l.variant.handleStop()
			case GetInfo:
				msg.Reply <- l.describe()
			case exec:
				msg.fn()
				close(msg.done)
			case Shutdown:
				l.variant.handleStop()
				l.cancel()
				return
			default:
				if !l.variant.handleMsg(m) {
					l.log.Debugw("unhandled lobby message", "lobby", l.id)
				}
			}
		}
	}
}

// CanJoin is the pure admission predicate: false when full, started,
// password mismatch, or the user already holds a seat.
func (l *Lobby) CanJoin(userID, password string) bool {
	if len(l.players) >= l.maxPlayers || l.started {
		return false
	}
	if l.password != "" && password != l.password {
		return false
	}
	if userID != "" {
		for _, p := range l.players {
			if p.UserID == userID {
				return false
			}
		}
	}
	return true
}

// addPlayer seats a new member, or returns nil without side effects
// when admission fails. Admission failure is silent by contract.
func (l *Lobby) addPlayer(msg Join) *Player {
	if !l.CanJoin(msg.UserID, msg.Password) {
		return nil
	}
	seat := l.nextSeat()
	p := &Player{Seat: seat, UserID: msg.UserID, Conn: msg.Conn, JoinedAt: time.Now()}
	l.players[seat] = p

	// The first user-identified member owns the lobby.
	if l.creatorID == "" && p.UserID != "" {
		l.creatorID = p.UserID
		l.creatorSeat = seat
	}

	l.variant.onPlayerAdded(p)

	l.broadcastExcept(seat, types.PlayerJoined{
		Type:        "playerJoined",
		PlayerID:    seat,
		PlayerCount: len(l.players),
		PlayerInfo:  p.info(false),
	})
	l.sendTo(p, l.describe().Wire())
	return p
}

// nextSeat returns the lowest unused ordinal seat.
func (l *Lobby) nextSeat() int {
	for seat := 1; seat <= l.maxPlayers; seat++ {
		if _, taken := l.players[seat]; !taken {
			return seat
		}
	}
	return 0 // unreachable: addPlayer checks fullness first
}

func (l *Lobby) removePlayer(seat int) {
	p, ok := l.players[seat]
	if !ok {
		return
	}
	delete(l.players, seat)
	delete(l.ready, seat)

	l.variant.onPlayerRemoved(p)

	l.broadcast(types.PlayerDisconnected{
		Type:        "playerDisconnected",
		ID:          seat,
		PlayerCount: len(l.players),
	})

	if seat == l.creatorSeat && len(l.players) > 0 {
		l.reassignCreator()
	}

	if len(l.players) == 0 && l.OnEmpty != nil {
		l.OnEmpty(l.id)
	}
}

// reassignCreator hands ownership to the lowest surviving seat that
// has a user identity.
func (l *Lobby) reassignCreator() {
	l.creatorID = ""
	l.creatorSeat = 0
	for _, seat := range l.seats() {
		if p := l.players[seat]; p.UserID != "" {
			l.creatorID = p.UserID
			l.creatorSeat = seat
			l.broadcast(types.NewCreator{
				Type:            "newCreator",
				CreatorID:       p.UserID,
				CreatorPlayerID: seat,
			})
			return
		}
	}
}

func (l *Lobby) setReady(seat int, ready bool) {
	if _, ok := l.players[seat]; !ok {
		return
	}
	if ready {
		l.ready[seat] = true
	} else {
		delete(l.ready, seat)
	}

	l.broadcast(types.PlayerReady{
		Type:       "playerReady",
		PlayerID:   seat,
		Ready:      ready,
		ReadyCount: len(l.ready),
	})

	// Readiness never auto-starts anything; starting stays a distinct
	// explicit operation on top of this signal.
	if len(l.players) >= minPlayersToStart && len(l.ready) == len(l.players) {
		l.broadcast(types.AllPlayersReady{Type: "allPlayersReady"})
	}
}

// findPlayer resolves gameplay input to a seat: by user id when one is
// present, by connection identity for anonymous players.
func (l *Lobby) findPlayer(userID string, conn Conn) *Player {
	for _, seat := range l.seats() {
		p := l.players[seat]
		if userID != "" && p.UserID == userID {
			return p
		}
		if userID == "" && conn != nil && p.Conn == conn {
			return p
		}
	}
	return nil
}

func (l *Lobby) seats() []int {
	seats := make([]int, 0, len(l.players))
	for s := range l.players {
		seats = append(seats, s)
	}
	sort.Ints(seats)
	return seats
}

func (l *Lobby) describe() Info {
	infos := make([]types.PlayerInfo, 0, len(l.players))
	for _, seat := range l.seats() {
		infos = append(infos, l.players[seat].info(l.ready[seat]))
	}
	return Info{
		ID:         l.id,
		Name:       l.name,
		LobbyType:  l.variant.lobbyType(),
		MaxPlayers: l.maxPlayers,
		CreatorID:  l.creatorID,
		Started:    l.started,
		Players:    infos,
	}
}

func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// broadcast serializes once and fans out through each member's
// non-blocking Conn. A slow socket never delays the actor.
func (l *Lobby) broadcast(v any) {
	payload := encode(v)
	if payload == nil {
		return
	}
	for _, p := range l.players {
		p.Conn.Send(payload)
	}
}

func (l *Lobby) broadcastExcept(seat int, v any) {
	payload := encode(v)
	if payload == nil {
		return
	}
	for s, p := range l.players {
		if s != seat {
			p.Conn.Send(payload)
		}
	}
}

func (l *Lobby) sendTo(p *Player, v any) {
	if payload := encode(v); payload != nil {
		p.Conn.Send(payload)
	}
}

func (l *Lobby) sendToConn(c Conn, v any) {
	if c == nil {
		return
	}
	if payload := encode(v); payload != nil {
		c.Send(payload)
	}
}
