// Package store is the persistence boundary: users, match records and
// tournament brackets. Gameplay never depends on a write succeeding;
// callers log failures and carry on.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrParticipantCount rejects tournament sizes that are not a
	// power of two (at least 2).
	ErrParticipantCount = errors.New("participant count must be a power of two")
)

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Username  string `json:"username"`
	CreatedAt time.Time
}

// MatchRecord is one 1v1 match. Scores are checkpointed while the
// match runs, WinnerID is set exactly once at the end.
type MatchRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
	Score1    int    `json:"score1"`
	Score2    int    `json:"score2"`
	WinnerID  string `json:"winnerId"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Tournament struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Rounds    int     `json:"rounds"`
	Bracket   Bracket `gorm:"serializer:json" json:"bracket"`
	WinnerID  string  `json:"winnerId"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	FindUserByID(ctx context.Context, id string) (*User, error)

	CreateMatchRecord(ctx context.Context, player1ID, player2ID string) (uint, error)
	UpdateMatchScore(ctx context.Context, id uint, score1, score2 int, winnerID string) error

	// CreateTournament persists a new tournament with a seeded bracket
	// for the given participants, in registration order.
	CreateTournament(ctx context.Context, participantIDs []string) (*Tournament, error)
	GetTournamentByID(ctx context.Context, id uint) (*Tournament, error)
	UpdateTournamentBracket(ctx context.Context, id uint, bracket Bracket) error
	UpdateTournamentWinner(ctx context.Context, id uint, winnerID string) error
}
