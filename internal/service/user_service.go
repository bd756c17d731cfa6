package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/store"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/markbates/goth"
	"golang.org/x/crypto/bcrypt"
)

const maxUsernameAttempts = 100

type UserService struct {
	store       *store.UserStore
	submissions *store.SubmissionStore
	now         func() time.Time
}

func NewUserService(store *store.UserStore, submissions *store.SubmissionStore) *UserService {
	return &UserService{
		store:       store,
		submissions: submissions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type SignUpInput struct {
	Name           string `form:"name" json:"name" validate:"required,max=100"`
	Email          string `form:"email" json:"email" validate:"required,email"`
	Password       string `form:"password" json:"password" validate:"required,min=8,max=72"`
	Role           string `form:"type" json:"type" validate:"required,oneof=candidate sponsor"`
	CompanyName    string `form:"company_name" json:"company_name" validate:"max=200"`
	GithubUsername string `form:"github_username" json:"github_username" validate:"max=39"`
}

// SignUp registers an email/password account with its role.
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (*users.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	role, err := users.ParseRole(input.Role)
	if err != nil {
		return nil, newValidationError("type", "must be one of candidate sponsor")
	}
	if role == users.RoleSponsor && strings.TrimSpace(input.CompanyName) == "" {
		return nil, newValidationError("company_name", "is required")
	}

	if _, err := s.store.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	base := input.GithubUsername
	if base == "" {
		base = input.Name
	}
	username, err := s.uniqueUsername(ctx, base)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		ID:             uuid.New(),
		Email:          &input.Email,
		Username:       username,
		DisplayName:    input.Name,
		Role:           &role,
		PasswordHash:   utils.Ptr(string(hash)),
		CompanyName:    utils.StringOrNil(input.CompanyName),
		GithubUsername: utils.StringOrNil(input.GithubUsername),
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// a concurrent sign-up can win between the lookup above and this insert
		if isUniqueViolation(err, "users.email") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// SignIn checks an email/password pair. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateUserByProvider maps an OAuth identity to a local user. role is
// the account type picked before the redirect; it only fills a missing role.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User, role *users.Role) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		changed := false
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			changed = true
		}
		if user.Role == nil && role != nil {
			user.Role = role
			changed = true
		}
		if changed {
			if err := s.store.UpdateUserProfile(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user profile: %w", err)
			}
		}
		return user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up provider user: %w", err)
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}
	base := gothUser.NickName
	if base == "" {
		base = name
	}
	username, err := s.uniqueUsername(ctx, base)
	if err != nil {
		return nil, err
	}

	newUser := &users.User{
		ID:          uuid.New(),
		Email:       utils.StringOrNil(strings.ToLower(gothUser.Email)),
		Username:    username,
		DisplayName: name,
		Role:        role,
		Provider:    &gothUser.Provider,
		ProviderID:  &gothUser.UserID,
		AvatarURL:   utils.StringOrNil(gothUser.AvatarURL),
		CreatedAt:   s.now(),
	}
	if gothUser.Provider == "github" {
		newUser.GithubUsername = utils.StringOrNil(gothUser.NickName)
	}
	if err := s.store.CreateUser(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create provider user: %w", err)
	}
	return newUser, nil
}

func (s *UserService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := slug.Make(base)
	if candidate == "" {
		candidate = "builder"
	}

	name := candidate
	for i := 2; i <= maxUsernameAttempts; i++ {
		exists, err := s.store.UsernameExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !exists {
			return name, nil
		}
		name = candidate + "-" + strconv.Itoa(i)
	}
	return candidate + "-" + uuid.NewString()[:8], nil
}

type BuilderProfile struct {
	User        *users.User            `json:"user"`
	Submissions []challenge.Submission `json:"submissions"`
}

func (s *UserService) GetBuilderProfile(ctx context.Context, username string) (*BuilderProfile, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, notFound("builder", err)
	}
	subs, err := s.submissions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list builder submissions: %w", err)
	}
	// e-mail addresses are not part of a public profile
	public := *user
	public.Email = nil
	return &BuilderProfile{User: &public, Submissions: subs}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}
