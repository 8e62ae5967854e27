package store

import (
	"context"
	"sync"
)

// Memory is an in-process Repository for tests and DSN-less runs.
type Memory struct {
	mu          sync.Mutex
	users       map[string]User
	matches     map[uint]MatchRecord
	tournaments map[uint]Tournament
	nextMatch   uint
	nextTourney uint
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]User),
		matches:     make(map[uint]MatchRecord),
		tournaments: make(map[uint]Tournament),
	}
}

// PutUser seeds a user; test helper, not part of Repository.
func (m *Memory) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CreateMatchRecord(_ context.Context, player1ID, player2ID string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMatch++
	m.matches[m.nextMatch] = MatchRecord{
		ID:        m.nextMatch,
		Player1ID: player1ID,
		Player2ID: player2ID,
	}
	return m.nextMatch, nil
}

func (m *Memory) UpdateMatchScore(_ context.Context, id uint, score1, score2 int, winnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return ErrNotFound
	}
	rec.Score1 = score1
	rec.Score2 = score2
	if winnerID != "" {
		rec.WinnerID = winnerID
	}
	m.matches[id] = rec
	return nil
}

// MatchByID is a test helper.
func (m *Memory) MatchByID(id uint) (MatchRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	return rec, ok
}

func (m *Memory) CreateTournament(_ context.Context, participantIDs []string) (*Tournament, error) {
	bracket, err := SeedBracket(participantIDs)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTourney++
	t := Tournament{ID: m.nextTourney, Rounds: len(bracket), Bracket: bracket}
	m.tournaments[t.ID] = t
	// Brackets handed out never alias the stored rows; callers mutate
	// their copy freely, like rows scanned out of postgres.
	out := t
	out.Bracket = t.Bracket.Clone()
	return &out, nil
}

func (m *Memory) GetTournamentByID(_ context.Context, id uint) (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Bracket = t.Bracket.Clone()
	return &t, nil
}

func (m *Memory) UpdateTournamentBracket(_ context.Context, id uint, bracket Bracket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return ErrNotFound
	}
	t.Bracket = bracket.Clone()
	m.tournaments[id] = t
	return nil
}

func (m *Memory) UpdateTournamentWinner(_ context.Context, id uint, winnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return ErrNotFound
	}
	t.WinnerID = winnerID
	m.tournaments[id] = t
	return nil
}

var _ Repository = (*Memory)(nil)
