package store

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres backs Repository with gorm over pgx.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&User{}, &MatchRecord{}, &Tournament{}); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) FindUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := p.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) CreateMatchRecord(ctx context.Context, player1ID, player2ID string) (uint, error) {
	rec := MatchRecord{Player1ID: player1ID, Player2ID: player2ID}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (p *Postgres) UpdateMatchScore(ctx context.Context, id uint, score1, score2 int, winnerID string) error {
	updates := map[string]any{"score1": score1, "score2": score2}
	if winnerID != "" {
		updates["winner_id"] = winnerID
	}
	res := p.db.WithContext(ctx).Model(&MatchRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateTournament(ctx context.Context, participantIDs []string) (*Tournament, error) {
	bracket, err := SeedBracket(participantIDs)
	if err != nil {
		return nil, err
	}
	t := Tournament{Rounds: len(bracket), Bracket: bracket}
	if err := p.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) GetTournamentByID(ctx context.Context, id uint) (*Tournament, error) {
	var t Tournament
	err := p.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) UpdateTournamentBracket(ctx context.Context, id uint, bracket Bracket) error {
	res := p.db.WithContext(ctx).Model(&Tournament{}).Where("id = ?", id).
		Update("bracket", bracket)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateTournamentWinner(ctx context.Context, id uint, winnerID string) error {
	res := p.db.WithContext(ctx).Model(&Tournament{}).Where("id = ?", id).
		Update("winner_id", winnerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*Postgres)(nil)
