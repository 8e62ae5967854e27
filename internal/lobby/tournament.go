package lobby

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pongarena/pong-backend/internal/store"
	"github.com/pongarena/pong-backend/pkg/types"
)

// Handle is what the registry holds for any lobby kind.
type Handle interface {
	ID() string
	Inbox() chan<- Msg
}

// matchLoc addresses one slot in the bracket (1-based round).
type matchLoc struct {
	round int
	index int
}

// TournamentLobby orchestrates a single-elimination bracket of child
// game lobbies. Rounds start only when the previous round is fully
// resolved; disconnects of seated participants forfeit their match.
type TournamentLobby struct {
	*Lobby
	cfg  Config
	repo store.Repository

	tournamentID uint
	bracket      store.Bracket
	round        int // 1-based; 0 before start
	starting     bool
	completed    bool
	createGen    int  // invalidates bracket creation results after a stop
	startFrom    Conn // requester of the pending start, for error replies

	children map[string]*GameLobby // child lobby id -> lobby
	childLoc map[string]matchLoc

	// Register/Unregister expose child lobbies to the registry so
	// paddle input addressed to a match id reaches the right engine.
	Register   func(h Handle)
	Unregister func(id string)
}

// TournamentOptions configures a new tournament lobby. MaxPlayers
// should be a power of two; an odd size is caught at start time when
// the bracket is seeded.
type TournamentOptions struct {
	ID         string
	Name       string
	Password   string
	MaxPlayers int
	Config     Config
	Repo       store.Repository
	Log        *zap.SugaredLogger

	OnEmpty    func(id string)
	Register   func(h Handle)
	Unregister func(id string)
}

func NewTournament(parent context.Context, o TournamentOptions) *TournamentLobby {
	t := &TournamentLobby{
		Lobby:      newLobby(parent, o.ID, o.Name, o.MaxPlayers, o.Password, o.Log),
		cfg:        o.Config.withDefaults(),
		repo:       o.Repo,
		children:   make(map[string]*GameLobby),
		childLoc:   make(map[string]matchLoc),
		Register:   o.Register,
		Unregister: o.Unregister,
	}
	t.OnEmpty = o.OnEmpty
	t.variant = t
	go t.loop()
	return t
}

func (t *TournamentLobby) lobbyType() string { return "tournament" }

func (t *TournamentLobby) onPlayerAdded(*Player) {}

// onPlayerRemoved forfeits the departing member's live match, if any.
// The opponent advances through the same completion path a played
// match uses.
func (t *TournamentLobby) onPlayerRemoved(p *Player) {
	if !t.started || t.completed || p.UserID == "" {
		return
	}
	for childID, loc := range t.childLoc {
		m := t.bracketMatch(loc)
		if m == nil || m.Resolved() {
			continue
		}
		if m.Player1ID != p.UserID && m.Player2ID != p.UserID {
			continue
		}
		opponent := m.Player1ID
		if opponent == p.UserID {
			opponent = m.Player2ID
		}
		t.log.Infow("participant disconnected, forfeiting match",
			"tournament", t.id, "match", childID, "loser", p.UserID)
		t.shutdownChild(childID)
		t.resolveSlot(loc, opponent, 0, 0)
		return
	}
}

func (t *TournamentLobby) handleStart(from Conn) {
	if t.started || t.starting {
		return // idempotent
	}
	if len(t.players) < minPlayersToStart {
		t.replyError(from, "not enough players to start a tournament")
		return
	}

	participants := make([]string, 0, len(t.players))
	for _, seat := range t.seats() {
		p := t.players[seat]
		if p.UserID == "" {
			t.replyError(from, "all tournament players must be signed in")
			return
		}
		participants = append(participants, p.UserID)
	}

	// Bracket creation is repository I/O; run it off-loop. The result
	// carries this start's generation so a stop in the meantime voids it.
	t.starting = true
	t.startFrom = from
	t.createGen++
	gen := t.createGen
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		rec, err := t.repo.CreateTournament(ctx, participants)
		if err != nil {
			t.postAsync(tournamentCreated{gen: gen, err: err})
			return
		}
		t.postAsync(tournamentCreated{gen: gen, tournamentID: rec.ID, bracket: rec.Bracket})
	}()
}

func (t *TournamentLobby) handleStop() {
	if !t.started && !t.starting {
		return // idempotent
	}
	for childID := range t.children {
		t.shutdownChild(childID)
	}
	t.childLoc = make(map[string]matchLoc)
	t.broadcast(types.TournamentStopped{Type: "tournamentStopped"})
	t.started = false
	t.starting = false
	t.startFrom = nil
	t.createGen++
}

func (t *TournamentLobby) handleMsg(m Msg) bool {
	switch msg := m.(type) {
	case tournamentCreated:
		t.onCreated(msg)
	case matchComplete:
		t.onMatchComplete(msg)
	default:
		return false
	}
	return true
}

func (t *TournamentLobby) onCreated(msg tournamentCreated) {
	if msg.gen != t.createGen {
		// The start this result belongs to was stopped while the
		// bracket was being created.
		t.log.Infow("discarding stale bracket", "lobby", t.id)
		return
	}
	t.starting = false
	from := t.startFrom
	t.startFrom = nil
	if msg.err != nil {
		// Non-power-of-two sizes are rejected outright rather than
		// padded with byes; the lobby stays open.
		t.log.Warnw("tournament create failed", "lobby", t.id, "err", msg.err)
		t.replyError(from, msg.err.Error())
		return
	}
	t.started = true
	t.completed = false
	t.tournamentID = msg.tournamentID
	t.bracket = msg.bracket
	t.round = 1

	t.broadcast(types.TournamentStarted{
		Type:         "tournamentStarted",
		TournamentID: t.tournamentID,
		Bracket:      t.bracket,
		Rounds:       len(t.bracket),
	})
	t.startRoundMatches(1)
}

// startRoundMatches launches every playable match of the round and
// auto-resolves byes afterwards, so a cascade cannot interleave with
// child construction.
func (t *TournamentLobby) startRoundMatches(round int) {
	var byes []matchLoc
	for i := range t.bracket[round-1] {
		m := &t.bracket[round-1][i]
		loc := matchLoc{round: round, index: i}
		switch {
		case m.Resolved():
			// carried over, nothing to do
		case m.IsBye():
			byes = append(byes, loc)
		case m.Player1ID != "" && m.Player2ID != "":
			t.startChildMatch(loc, m)
		}
	}
	for _, loc := range byes {
		m := t.bracketMatch(loc)
		t.log.Infow("bye, advancing unplayed", "tournament", t.id, "user", m.Player1ID)
		t.resolveSlot(loc, m.Player1ID, 0, 0)
	}
}

func (t *TournamentLobby) startChildMatch(loc matchLoc, m *store.BracketMatch) {
	p1 := t.findPlayer(m.Player1ID, nil)
	p2 := t.findPlayer(m.Player2ID, nil)
	if p1 == nil || p2 == nil {
		// A participant left between rounds: the one still here wins,
		// or seat one advances if both are gone.
		winner := m.Player1ID
		if p1 == nil && p2 != nil {
			winner = m.Player2ID
		}
		t.resolveSlot(loc, winner, 0, 0)
		return
	}

	childID := fmt.Sprintf("%s-r%d-m%d", t.id, loc.round, loc.index)
	onComplete := func(id, winnerUserID string, score1, score2 int) {
		// Runs on the child's loop; hand off without blocking it.
		t.postAsync(matchComplete{
			childID:      id,
			winnerUserID: winnerUserID,
			score1:       score1,
			score2:       score2,
		})
	}
	child := newChildGameLobby(t.ctx, childID, t.cfg, t.repo, t.log, p1, p2, onComplete)
	t.children[childID] = child
	t.childLoc[childID] = loc
	if t.Register != nil {
		t.Register(child)
	}
	child.Inbox() <- Start{}

	t.broadcast(types.MatchStarted{
		Type:        "matchStarted",
		MatchID:     childID,
		RoundNumber: loc.round,
		Player1ID:   m.Player1ID,
		Player2ID:   m.Player2ID,
	})
}

func (t *TournamentLobby) onMatchComplete(msg matchComplete) {
	loc, ok := t.childLoc[msg.childID]
	if !ok {
		return
	}
	t.shutdownChild(msg.childID)
	t.resolveSlot(loc, msg.winnerUserID, msg.score1, msg.score2)
}

// resolveSlot records a winner and advances the bracket when the
// round is done. Results are append-only; a resolved slot never
// changes.
func (t *TournamentLobby) resolveSlot(loc matchLoc, winnerUserID string, score1, score2 int) {
	m := t.bracketMatch(loc)
	if m == nil || m.Resolved() {
		return
	}
	m.WinnerID = winnerUserID
	t.persistBracket()

	round := t.bracket[loc.round-1]
	for i := range round {
		if !round[i].Resolved() {
			return
		}
	}
	t.advanceRound(loc.round)
}

func (t *TournamentLobby) advanceRound(finished int) {
	if finished == len(t.bracket) {
		t.finalize()
		return
	}

	// Pair the round's winners into the next round's slots, in order.
	next := t.bracket[finished]
	for i, m := range t.bracket[finished-1] {
		if i%2 == 0 {
			next[i/2].Player1ID = m.WinnerID
		} else {
			next[i/2].Player2ID = m.WinnerID
		}
	}
	t.round = finished + 1
	t.persistBracket()
	t.startRoundMatches(t.round)
}

func (t *TournamentLobby) finalize() {
	t.completed = true
	winner := t.bracket[len(t.bracket)-1][0].WinnerID
	t.log.Infow("tournament complete", "tournament", t.id, "winner", winner)
	t.broadcast(types.TournamentOver{Type: "tournamentOver", WinnerID: winner})

	id := t.tournamentID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := t.repo.UpdateTournamentWinner(ctx, id, winner); err != nil {
			t.log.Warnw("tournament winner persist failed", "tournament", id, "err", err)
		}
	}()
}

func (t *TournamentLobby) persistBracket() {
	id := t.tournamentID
	bracket := t.bracket.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := t.repo.UpdateTournamentBracket(ctx, id, bracket); err != nil {
			t.log.Warnw("bracket persist failed", "tournament", id, "err", err)
		}
	}()
}

func (t *TournamentLobby) shutdownChild(childID string) {
	child, ok := t.children[childID]
	if !ok {
		return
	}
	delete(t.children, childID)
	delete(t.childLoc, childID)
	if t.Unregister != nil {
		t.Unregister(childID)
	}
	child.postAsync(Shutdown{})
}

// replyError answers a failed start. Refusals go to the member who
// asked; with no known requester everyone is told.
func (t *TournamentLobby) replyError(from Conn, msg string) {
	e := types.ErrorMessage{Type: "error", Error: msg}
	if from != nil {
		t.sendToConn(from, e)
		return
	}
	t.broadcast(e)
}

func (t *TournamentLobby) bracketMatch(loc matchLoc) *store.BracketMatch {
	if loc.round < 1 || loc.round > len(t.bracket) {
		return nil
	}
	round := t.bracket[loc.round-1]
	if loc.index < 0 || loc.index >= len(round) {
		return nil
	}
	return &round[loc.index]
}

// postAsync delivers m to the lobby's inbox from outside its loop
// without ever blocking the caller's goroutine on a stopped lobby.
func (l *Lobby) postAsync(m Msg) {
	go func() {
		select {
		case l.inbox <- m:
		case <-l.ctx.Done():
		}
	}()
}
