package judge

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	manualWeight = 0.7
	autoWeight   = 0.3

	minScore = 0.0
	maxScore = 100.0
)

var (
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
	ErrUnknownCategory = errors.New("unknown rubric category")
	ErrUnknownBadge    = errors.New("unknown badge")
)

type Category string

const (
	Implementation Category = "implementation"
	Innovation     Category = "innovation"
	Impact         Category = "impact"
	Presentation   Category = "presentation"
)

var Categories = []Category{Implementation, Innovation, Impact, Presentation}

type Rubric struct {
	Implementation float64 `json:"implementation"`
	Innovation     float64 `json:"innovation"`
	Impact         float64 `json:"impact"`
	Presentation   float64 `json:"presentation"`
}

func (r Rubric) Mean() float64 {
	return (r.Implementation + r.Innovation + r.Impact + r.Presentation) / float64(len(Categories))
}

func (r *Rubric) set(c Category, v float64) error {
	switch c {
	case Implementation:
		r.Implementation = v
	case Innovation:
		r.Innovation = v
	case Impact:
		r.Impact = v
	case Presentation:
		r.Presentation = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return nil
}

type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Score     float64   `json:"score"`
	By        string    `json:"by"`
}

// Panel is a judge's working copy of one submission's review. It only ever
// lives in the judge's session.
type Panel struct {
	SubmissionID uuid.UUID    `json:"submission_id"`
	Title        string       `json:"title"`
	AutoScore    float64      `json:"auto_score"`
	ManualScore  float64      `json:"manual_score"`
	FinalScore   float64      `json:"final_score"`
	Rubric       Rubric       `json:"rubric"`
	Comments     string       `json:"comments"`
	Badges       []string     `json:"badges"`
	Awarded      []Badge      `json:"awarded_badges"`
	Log          []AuditEntry `json:"scoring_log"`
	Submitted    bool         `json:"submitted"`
}

// NewPanel starts a review from the submission's stored automatic score.
func NewPanel(submissionID uuid.UUID, title string, autoScore float64, at time.Time) *Panel {
	return &Panel{
		SubmissionID: submissionID,
		Title:        title,
		AutoScore:    autoScore,
		FinalScore:   autoScore,
		Badges:       []string{},
		Awarded:      []Badge{},
		Log: []AuditEntry{
			{Timestamp: at, Event: "Auto-scoring completed", Score: autoScore, By: "System"},
		},
	}
}

func validScore(v float64) bool {
	return v >= minScore && v <= maxScore
}

// SetRubric updates one category and recomputes the blended final score.
func (p *Panel) SetRubric(c Category, value float64) error {
	if !validScore(value) {
		return ErrScoreOutOfRange
	}
	updated := p.Rubric
	if err := updated.set(c, value); err != nil {
		return err
	}

	p.Rubric = updated
	p.ManualScore = updated.Mean()
	p.FinalScore = manualWeight*p.ManualScore + autoWeight*p.AutoScore
	return nil
}

// Override replaces the final score outright. Out of range values leave the
// panel untouched.
func (p *Panel) Override(score float64, by string, at time.Time) error {
	if !validScore(score) {
		return ErrScoreOutOfRange
	}
	p.FinalScore = score
	p.Log = append(p.Log, AuditEntry{Timestamp: at, Event: "Score manually overridden", Score: score, By: by})
	return nil
}

// ToggleBadge selects the badge, or deselects it when already selected.
func (p *Panel) ToggleBadge(id string) error {
	if _, ok := LookupBadge(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBadge, id)
	}
	if i := slices.Index(p.Badges, id); i >= 0 {
		p.Badges = slices.Delete(p.Badges, i, i+1)
		return nil
	}
	p.Badges = append(p.Badges, id)
	return nil
}

// SubmitReview logs the final score and attaches the selected badges.
func (p *Panel) SubmitReview(comments, by string, at time.Time) {
	p.Comments = comments
	p.Log = append(p.Log, AuditEntry{Timestamp: at, Event: "Review submitted", Score: p.FinalScore, By: by})

	awarded := make([]Badge, 0, len(p.Badges))
	for _, b := range AvailableBadges {
		if slices.Contains(p.Badges, b.ID) {
			awarded = append(awarded, b)
		}
	}
	p.Awarded = awarded
	p.Submitted = true
}
