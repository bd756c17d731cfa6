package views

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/google/uuid"
)

const dateLayout = "Jan 2, 2006"

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

func canSubmit(ctx context.Context) bool {
	user := GetUser(ctx)
	return user != nil && user.HasRole(users.RoleCandidate)
}

func canPostChallenges(ctx context.Context) bool {
	user := GetUser(ctx)
	return user != nil && user.HasRole(users.RoleSponsor)
}

type oauthProvider struct {
	ID   string
	Name string
}

var oauthProviders = []oauthProvider{
	{ID: "github", Name: "GitHub"},
	{ID: "google", Name: "Google"},
	{ID: "discord", Name: "Discord"},
}

var accountTypes = []users.Role{users.RoleCandidate, users.RoleSponsor}

var difficulties = []string{"beginner", "medium", "advanced"}

func oauthURL(provider, accountType, redirect string) string {
	q := url.Values{}
	if accountType != "" {
		q.Set("type", accountType)
	}
	if redirect != "" {
		q.Set("redirect", redirect)
	}
	target := "/auth/" + provider
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target
}

func challengePath(id uuid.UUID) string {
	return "/challenges/" + id.String()
}

func submitPath(id uuid.UUID) string {
	return "/submit/" + id.String()
}

func prizeLabel(c challenge.Challenge) string {
	if c.PrizeAmount.Valid {
		return "$" + c.PrizeAmount.Decimal.StringFixed(2)
	}
	return c.PrizeDescription
}

func scoreLabel(s challenge.Submission) string {
	return strconv.FormatFloat(s.ScoreOrZero(), 'f', 1, 64)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

type SignupForm struct {
	Type           users.Role
	Name           string
	Email          string
	CompanyName    string
	GithubUsername string
	Errors         map[string]string
}

type ChallengeForm struct {
	Title            string
	Description      string
	Requirements     string
	PrizeAmount      string
	PrizeDescription string
	Category         string
	Difficulty       string
	StartDate        string
	Deadline         string
	Errors           map[string]string
}

// SubmitForm backs the submission page. Challenge is set when the page was
// opened for one challenge; otherwise the builder picks from Challenges.
type SubmitForm struct {
	Challenge       *challenge.Challenge
	Challenges      []challenge.Challenge
	ChallengeID     string
	RepositoryURL   string
	Description     string
	DemoURL         string
	AdditionalNotes string
	Errors          map[string]string
}
