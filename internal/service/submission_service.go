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
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/google/uuid"
)

type SubmissionService struct {
	challenges  *store.ChallengeStore
	submissions *store.SubmissionStore
	now         func() time.Time
}

func NewSubmissionService(challenges *store.ChallengeStore, submissions *store.SubmissionStore) *SubmissionService {
	return &SubmissionService{
		challenges:  challenges,
		submissions: submissions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type SubmissionInput struct {
	ChallengeID     string `form:"challenge_id" json:"challenge_id" validate:"required"`
	RepositoryURL   string `form:"repository_url" json:"repository_url" validate:"required,url"`
	Description     string `form:"description" json:"description" validate:"required"`
	DemoURL         string `form:"demo_url" json:"demo_url" validate:"omitempty,url"`
	AdditionalNotes string `form:"additional_notes" json:"additional_notes" validate:"max=5000"`
}

func (in *SubmissionInput) normalize() {
	in.ChallengeID = strings.TrimSpace(in.ChallengeID)
	in.RepositoryURL = strings.TrimSpace(in.RepositoryURL)
	in.Description = strings.TrimSpace(in.Description)
	in.DemoURL = strings.TrimSpace(in.DemoURL)
	in.AdditionalNotes = strings.TrimSpace(in.AdditionalNotes)
}

type SubmitResult struct {
	Submission *challenge.Submission
	Created    bool
}

// Submit creates the caller's submission for a challenge, or replaces the
// existing one in place. A resubmission goes back under review with a zero
// score, so earlier judging is discarded.
func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (*SubmitResult, error) {
	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.HasRole(users.RoleCandidate) {
		return nil, fmt.Errorf("only candidates can submit solutions: %w", ErrForbidden)
	}

	challengeID, err := uuid.Parse(input.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %q: %w", input.ChallengeID, ErrNotFound)
	}
	if _, err := s.challenges.GetChallenge(ctx, challengeID); err != nil {
		return nil, notFound("challenge", err)
	}

	now := s.now()
	sub := &challenge.Submission{
		ID:              uuid.New(),
		ChallengeID:     challengeID,
		UserID:          user.ID,
		RepositoryURL:   input.RepositoryURL,
		Description:     input.Description,
		DemoURL:         utils.StringOrNil(input.DemoURL),
		AdditionalNotes: utils.StringOrNil(input.AdditionalNotes),
		Title:           challenge.DeriveTitle(input.Description),
		Score:           utils.Ptr(0.0),
		Status:          challenge.SubmissionUnderReview,
		SubmissionDate:  now,
		UserName:        utils.Ptr(user.SnapshotName()),
		UserAvatar:      user.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.submissions.UpsertSubmission(ctx, sub)
	if err != nil {
		slog.Error("failed to store submission", "challenge_id", challengeID, "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	slog.Info("submission stored", "submission_id", sub.ID, "challenge_id", challengeID, "created", created)
	return &SubmitResult{Submission: sub, Created: created}, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*challenge.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, notFound("submission", err)
	}
	return sub, nil
}

// MySubmissions is the signed-in user's submission history, newest first.
func (s *SubmissionService) MySubmissions(ctx context.Context) ([]challenge.Submission, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	subs, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}
