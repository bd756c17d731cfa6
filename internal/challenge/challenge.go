package challenge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown challenge status %q", s)
	}
	return st, nil
}

type Challenge struct {
	ID               uuid.UUID           `db:"id" json:"id"`
	SponsorID        uuid.UUID           `db:"sponsor_id" json:"sponsor_id"`
	Title            string              `db:"title" json:"title"`
	Description      string              `db:"description" json:"description"`
	Requirements     string              `db:"requirements" json:"requirements"`
	PrizeAmount      decimal.NullDecimal `db:"prize_amount" json:"prize_amount"`
	PrizeDescription string              `db:"prize_description" json:"prize_description"`
	Category         string              `db:"category" json:"category"`
	Difficulty       string              `db:"difficulty" json:"difficulty"`
	StartDate        time.Time           `db:"start_date" json:"start_date"`
	Deadline         time.Time           `db:"deadline" json:"deadline"`
	Status           Status              `db:"status" json:"status"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// DeriveStatus compares calendar days in UTC: a challenge starting on a later
// day than now is a draft, anything starting today or earlier is active.
func DeriveStatus(startDate, now time.Time) Status {
	start := truncateDay(startDate)
	today := truncateDay(now)
	if start.After(today) {
		return StatusDraft
	}
	return StatusActive
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Challenge) OwnedBy(userID uuid.UUID) bool {
	return c.SponsorID == userID
}
