package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SubmissionStore struct {
	db *sqlx.DB
}

const (
	// The unique index on (challenge_id, user_id) makes this a single atomic
	// insert-or-update; a resubmission keeps id and created_at.
	upsertSubmissionQuery = `
		INSERT INTO submissions (id, challenge_id, user_id, repository_url, description, demo_url, additional_notes,
			title, score, status, submission_date, user_name, user_avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (challenge_id, user_id) DO UPDATE SET
			repository_url = excluded.repository_url,
			description = excluded.description,
			demo_url = excluded.demo_url,
			additional_notes = excluded.additional_notes,
			title = excluded.title,
			score = excluded.score,
			status = excluded.status,
			submission_date = excluded.submission_date,
			user_name = excluded.user_name,
			user_avatar = excluded.user_avatar,
			updated_at = excluded.updated_at
		RETURNING id
	`
	getSubmissionQuery          = "SELECT * FROM submissions WHERE id = ?"
	listSubmissionsByChallenge  = "SELECT * FROM submissions WHERE challenge_id = ? ORDER BY score DESC, submission_date ASC"
	listSubmissionsByUser       = "SELECT * FROM submissions WHERE user_id = ? ORDER BY submission_date DESC"
	listAllSubmissions          = "SELECT * FROM submissions ORDER BY score DESC, submission_date ASC LIMIT ?"
	updateSubmissionStatusQuery = "UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?"
)

func NewSubmissionStore(db *sqlx.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// UpsertSubmission writes sub keyed on (challenge_id, user_id) and reports
// whether a new row was created. On return sub holds the stored row.
func (s *SubmissionStore) UpsertSubmission(ctx context.Context, sub *challenge.Submission) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var storedID uuid.UUID
	err = tx.GetContext(ctx, &storedID, upsertSubmissionQuery,
		sub.ID, sub.ChallengeID, sub.UserID, sub.RepositoryURL, sub.Description, sub.DemoURL, sub.AdditionalNotes,
		sub.Title, sub.Score, sub.Status, sub.SubmissionDate, sub.UserName, sub.UserAvatar, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return false, err
	}

	var stored challenge.Submission
	if err := tx.GetContext(ctx, &stored, getSubmissionQuery, storedID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	created := storedID == sub.ID
	*sub = stored
	return created, nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, id uuid.UUID) (*challenge.Submission, error) {
	var sub challenge.Submission
	if err := s.db.GetContext(ctx, &sub, getSubmissionQuery, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionStore) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]challenge.Submission, error) {
	subs := []challenge.Submission{}
	err := s.db.SelectContext(ctx, &subs, listSubmissionsByChallenge, challengeID)
	return subs, err
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]challenge.Submission, error) {
	subs := []challenge.Submission{}
	err := s.db.SelectContext(ctx, &subs, listSubmissionsByUser, userID)
	return subs, err
}

// ListAll returns raw submission rows by score; they are not aggregated per user.
func (s *SubmissionStore) ListAll(ctx context.Context, limit int) ([]challenge.Submission, error) {
	subs := []challenge.Submission{}
	err := s.db.SelectContext(ctx, &subs, listAllSubmissions, limit)
	return subs, err
}

func (s *SubmissionStore) UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status challenge.SubmissionStatus, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, updateSubmissionStatusQuery, status, updatedAt, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
