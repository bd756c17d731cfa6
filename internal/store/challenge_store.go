package store

import (
	"context"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ChallengeStore struct {
	db *sqlx.DB
}

const (
	createChallengeQuery = `
		INSERT INTO challenges (id, sponsor_id, title, description, requirements, prize_amount, prize_description,
			category, difficulty, start_date, deadline, status, created_at, updated_at)
		VALUES (:id, :sponsor_id, :title, :description, :requirements, :prize_amount, :prize_description,
			:category, :difficulty, :start_date, :deadline, :status, :created_at, :updated_at)
	`
	updateChallengeQuery = `
		UPDATE challenges SET
		title = :title,
		description = :description,
		requirements = :requirements,
		prize_amount = :prize_amount,
		prize_description = :prize_description,
		category = :category,
		difficulty = :difficulty,
		start_date = :start_date,
		deadline = :deadline,
		updated_at = :updated_at
		WHERE id = :id
	`
	getChallengeQuery            = "SELECT * FROM challenges WHERE id = ?"
	listChallengesQuery          = "SELECT * FROM challenges ORDER BY created_at DESC"
	listChallengesBySponsorQuery = "SELECT * FROM challenges WHERE sponsor_id = ? ORDER BY created_at DESC"
)

func NewChallengeStore(db *sqlx.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func (s *ChallengeStore) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	_, err := s.db.NamedExecContext(ctx, createChallengeQuery, c)
	return err
}

// UpdateChallenge never touches status, sponsor_id or created_at.
func (s *ChallengeStore) UpdateChallenge(ctx context.Context, c *challenge.Challenge) error {
	res, err := s.db.NamedExecContext(ctx, updateChallengeQuery, c)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *ChallengeStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	var c challenge.Challenge
	if err := s.db.GetContext(ctx, &c, getChallengeQuery, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChallengeStore) ListChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	challenges := []challenge.Challenge{}
	err := s.db.SelectContext(ctx, &challenges, listChallengesQuery)
	return challenges, err
}

func (s *ChallengeStore) ListChallengesBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]challenge.Challenge, error) {
	challenges := []challenge.Challenge{}
	err := s.db.SelectContext(ctx, &challenges, listChallengesBySponsorQuery, sponsorID)
	return challenges, err
}
