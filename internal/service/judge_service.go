package service

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/judge"
	"github.com/AdamBeresnev/aibuilders/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

func init() {
	// scs gob-encodes session values
	gob.Register(judge.Panel{})
}

// JudgeService keeps review panels in the judge's session only. Rubric
// scores, overrides and badges are never written to the submissions table.
type JudgeService struct {
	challenges  *store.ChallengeStore
	submissions *store.SubmissionStore
	sessions    *scs.SessionManager
	now         func() time.Time
}

func NewJudgeService(challenges *store.ChallengeStore, submissions *store.SubmissionStore, sessions *scs.SessionManager) *JudgeService {
	return &JudgeService{
		challenges:  challenges,
		submissions: submissions,
		sessions:    sessions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func panelKey(submissionID uuid.UUID) string {
	return "judge_panel:" + submissionID.String()
}

// Open returns the judge's panel for a submission, starting a fresh one
// from the stored score when the session has none.
func (s *JudgeService) Open(ctx context.Context, submissionID uuid.UUID) (*judge.Panel, error) {
	sponsor, err := requireSponsor(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, notFound("submission", err)
	}
	c, err := s.challenges.GetChallenge(ctx, sub.ChallengeID)
	if err != nil {
		return nil, notFound("challenge", err)
	}
	if !c.OwnedBy(sponsor.ID) {
		return nil, fmt.Errorf("submission %s belongs to another sponsor's challenge: %w", submissionID, ErrForbidden)
	}

	if panel, ok := s.sessions.Get(ctx, panelKey(submissionID)).(judge.Panel); ok {
		// gob decodes empty slices as nil once the session has been stored
		if panel.Badges == nil {
			panel.Badges = []string{}
		}
		if panel.Awarded == nil {
			panel.Awarded = []judge.Badge{}
		}
		return &panel, nil
	}
	return judge.NewPanel(sub.ID, sub.Title, sub.ScoreOrZero(), s.now()), nil
}

func (s *JudgeService) save(ctx context.Context, panel *judge.Panel) {
	s.sessions.Put(ctx, panelKey(panel.SubmissionID), *panel)
}

func (s *JudgeService) update(ctx context.Context, submissionID uuid.UUID, fn func(p *judge.Panel, actor string) error) (*judge.Panel, error) {
	panel, err := s.Open(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	// Open already checked the sponsor
	sponsor, _ := requireSponsor(ctx)

	if err := fn(panel, sponsor.SnapshotName()); err != nil {
		switch {
		case errors.Is(err, judge.ErrScoreOutOfRange):
			return nil, newValidationError("score", err.Error())
		case errors.Is(err, judge.ErrUnknownCategory):
			return nil, newValidationError("category", err.Error())
		case errors.Is(err, judge.ErrUnknownBadge):
			return nil, newValidationError("badge", err.Error())
		}
		return nil, err
	}
	s.save(ctx, panel)
	return panel, nil
}

func (s *JudgeService) SetRubric(ctx context.Context, submissionID uuid.UUID, category judge.Category, value float64) (*judge.Panel, error) {
	return s.update(ctx, submissionID, func(p *judge.Panel, _ string) error {
		return p.SetRubric(category, value)
	})
}

func (s *JudgeService) Override(ctx context.Context, submissionID uuid.UUID, score float64) (*judge.Panel, error) {
	return s.update(ctx, submissionID, func(p *judge.Panel, actor string) error {
		return p.Override(score, actor, s.now())
	})
}

func (s *JudgeService) ToggleBadge(ctx context.Context, submissionID uuid.UUID, badgeID string) (*judge.Panel, error) {
	return s.update(ctx, submissionID, func(p *judge.Panel, _ string) error {
		return p.ToggleBadge(badgeID)
	})
}

func (s *JudgeService) SubmitReview(ctx context.Context, submissionID uuid.UUID, comments string) (*judge.Panel, error) {
	return s.update(ctx, submissionID, func(p *judge.Panel, actor string) error {
		p.SubmitReview(comments, actor, s.now())
		return nil
	})
}
