package challenge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionUnderReview SubmissionStatus = "under-review"
	SubmissionScored      SubmissionStatus = "scored"
	SubmissionApproved    SubmissionStatus = "approved"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionUnderReview, SubmissionScored, SubmissionApproved:
		return true
	}
	return false
}

// Label is the human readable form shown on dashboards.
func (s SubmissionStatus) Label() string {
	switch s {
	case SubmissionUnderReview:
		return "Under Review"
	case SubmissionScored:
		return "Scored"
	case SubmissionApproved:
		return "Approved"
	}
	return string(s)
}

// CanTransitionTo reports whether a sponsor action may move a submission
// from s to next. Only approval of a submission under review is supported.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return s == SubmissionUnderReview && next == SubmissionApproved
}

func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	st := SubmissionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown submission status %q", s)
	}
	return st, nil
}

const titleLength = 50

type Submission struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ChallengeID     uuid.UUID        `db:"challenge_id" json:"challenge_id"`
	UserID          uuid.UUID        `db:"user_id" json:"user_id"`
	RepositoryURL   string           `db:"repository_url" json:"repository_url"`
	Description     string           `db:"description" json:"description"`
	DemoURL         *string          `db:"demo_url" json:"demo_url"`
	AdditionalNotes *string          `db:"additional_notes" json:"additional_notes"`
	Title           string           `db:"title" json:"title"`
	Score           *float64         `db:"score" json:"score"`
	Status          SubmissionStatus `db:"status" json:"status"`
	Feedback        *string          `db:"feedback" json:"feedback"`
	SubmissionDate  time.Time        `db:"submission_date" json:"submission_date"`
	UserName        *string          `db:"user_name" json:"user_name"`
	UserAvatar      *string          `db:"user_avatar" json:"user_avatar"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// DeriveTitle keeps the first 50 characters of the description and always
// appends an ellipsis, even when nothing was cut.
func DeriveTitle(description string) string {
	runes := []rune(description)
	if len(runes) > titleLength {
		runes = runes[:titleLength]
	}
	return string(runes) + "..."
}

func (s *Submission) ScoreOrZero() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}
