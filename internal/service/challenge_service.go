package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/store"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultDifficulty = "medium"

type ChallengeService struct {
	challenges  *store.ChallengeStore
	submissions *store.SubmissionStore
	now         func() time.Time
}

func NewChallengeService(challenges *store.ChallengeStore, submissions *store.SubmissionStore) *ChallengeService {
	return &ChallengeService{
		challenges:  challenges,
		submissions: submissions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ChallengeInput carries the create/edit form. Dates accept either a plain
// day (2006-01-02) or RFC 3339.
type ChallengeInput struct {
	Title            string `form:"title" json:"title" validate:"required,max=200"`
	Description      string `form:"description" json:"description" validate:"required"`
	Requirements     string `form:"requirements" json:"requirements"`
	PrizeAmount      string `form:"prize_amount" json:"prize_amount"`
	PrizeDescription string `form:"prize_description" json:"prize_description"`
	Category         string `form:"category" json:"category"`
	Difficulty       string `form:"difficulty" json:"difficulty"`
	StartDate        string `form:"start_date" json:"start_date" validate:"required"`
	Deadline         string `form:"deadline" json:"deadline" validate:"required"`
}

type parsedChallenge struct {
	prize     decimal.NullDecimal
	startDate time.Time
	deadline  time.Time
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func (in *ChallengeInput) parse() (*parsedChallenge, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.PrizeAmount = strings.TrimSpace(in.PrizeAmount)
	in.Difficulty = strings.TrimSpace(in.Difficulty)
	if in.Difficulty == "" {
		in.Difficulty = defaultDifficulty
	}

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	verr := &ValidationError{Fields: map[string]string{}}
	var out parsedChallenge

	if in.PrizeAmount != "" {
		amount, err := decimal.NewFromString(in.PrizeAmount)
		switch {
		case err != nil:
			verr.Fields["prize_amount"] = "must be a number"
		case amount.IsNegative():
			verr.Fields["prize_amount"] = "must not be negative"
		default:
			out.prize = decimal.NewNullDecimal(amount)
		}
	}

	var err error
	if out.startDate, err = parseDate(in.StartDate); err != nil {
		verr.Fields["start_date"] = "must be a date"
	}
	if out.deadline, err = parseDate(in.Deadline); err != nil {
		verr.Fields["deadline"] = "must be a date"
	}
	if len(verr.Fields) == 0 && out.deadline.Before(out.startDate) {
		verr.Fields["deadline"] = "must not be before start_date"
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return &out, nil
}

func requireSponsor(ctx context.Context) (*users.User, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.HasRole(users.RoleSponsor) {
		return nil, fmt.Errorf("sponsor role required: %w", ErrForbidden)
	}
	return user, nil
}

// CreateChallenge stores a new challenge for the signed-in sponsor. Its
// status is decided here once and never recomputed.
func (s *ChallengeService) CreateChallenge(ctx context.Context, input ChallengeInput) (*challenge.Challenge, error) {
	parsed, err := input.parse()
	if err != nil {
		return nil, err
	}
	sponsor, err := requireSponsor(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &challenge.Challenge{
		ID:               uuid.New(),
		SponsorID:        sponsor.ID,
		Title:            input.Title,
		Description:      input.Description,
		Requirements:     input.Requirements,
		PrizeAmount:      parsed.prize,
		PrizeDescription: input.PrizeDescription,
		Category:         input.Category,
		Difficulty:       input.Difficulty,
		StartDate:        parsed.startDate,
		Deadline:         parsed.deadline,
		Status:           challenge.DeriveStatus(parsed.startDate, now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.challenges.CreateChallenge(ctx, c); err != nil {
		slog.Error("failed to create challenge", "sponsor_id", sponsor.ID, "error", err)
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return c, nil
}

// UpdateChallenge edits a challenge owned by the signed-in sponsor.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, id uuid.UUID, input ChallengeInput) (*challenge.Challenge, error) {
	parsed, err := input.parse()
	if err != nil {
		return nil, err
	}
	sponsor, err := requireSponsor(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.challenges.GetChallenge(ctx, id)
	if err != nil {
		return nil, notFound("challenge", err)
	}
	if !c.OwnedBy(sponsor.ID) {
		return nil, fmt.Errorf("challenge %s belongs to another sponsor: %w", id, ErrForbidden)
	}

	c.Title = input.Title
	c.Description = input.Description
	c.Requirements = input.Requirements
	c.PrizeAmount = parsed.prize
	c.PrizeDescription = input.PrizeDescription
	c.Category = input.Category
	c.Difficulty = input.Difficulty
	c.StartDate = parsed.startDate
	c.Deadline = parsed.deadline
	c.UpdatedAt = s.now()

	if err := s.challenges.UpdateChallenge(ctx, c); err != nil {
		slog.Error("failed to update challenge", "challenge_id", id, "error", err)
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	c, err := s.challenges.GetChallenge(ctx, id)
	if err != nil {
		return nil, notFound("challenge", err)
	}
	return c, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	challenges, err := s.challenges.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

func (s *ChallengeService) ListSponsorChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	sponsor, err := requireSponsor(ctx)
	if err != nil {
		return nil, err
	}
	challenges, err := s.challenges.ListChallengesBySponsor(ctx, sponsor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsor challenges: %w", err)
	}
	return challenges, nil
}

// ChallengeLeaderboard lists a challenge's submissions by score.
func (s *ChallengeService) ChallengeLeaderboard(ctx context.Context, id uuid.UUID) ([]challenge.Submission, error) {
	if _, err := s.GetChallenge(ctx, id); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByChallenge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge submissions: %w", err)
	}
	return subs, nil
}

// GlobalLeaderboard lists raw submission rows across all challenges by score.
// Scores are not summed per builder.
func (s *ChallengeService) GlobalLeaderboard(ctx context.Context, limit int) ([]challenge.Submission, error) {
	subs, err := s.submissions.ListAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// ApproveSubmission lets the challenge's sponsor approve a submission that
// is still under review.
func (s *ChallengeService) ApproveSubmission(ctx context.Context, submissionID uuid.UUID) (*challenge.Submission, error) {
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
	if !sub.Status.CanTransitionTo(challenge.SubmissionApproved) {
		return nil, fmt.Errorf("cannot approve a submission that is %s: %w", sub.Status, ErrInvalidTransition)
	}

	now := s.now()
	if err := s.submissions.UpdateSubmissionStatus(ctx, sub.ID, challenge.SubmissionApproved, now); err != nil {
		slog.Error("failed to approve submission", "submission_id", sub.ID, "error", err)
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}
	sub.Status = challenge.SubmissionApproved
	sub.UpdatedAt = now
	return sub, nil
}
