package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleSponsor   Role = "sponsor"
)

func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleSponsor
}

// DashboardPath is where a user of this role lands after signing in.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "-dashboard"
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

const unknownUserName = "Unknown User"

type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Username       string    `db:"username" json:"username"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Role           *Role     `db:"role" json:"role"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	Provider       *string   `db:"provider" json:"-"`
	ProviderID     *string   `db:"provider_id" json:"-"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	CompanyName    *string   `db:"company_name" json:"company_name,omitempty"`
	GithubUsername *string   `db:"github_username" json:"github_username,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// HasRole is false for users whose profile carries no role yet.
func (u *User) HasRole(r Role) bool {
	return u.Role != nil && *u.Role == r
}

// SnapshotName falls back from the display name to the local part of the
// e-mail address and finally to a fixed placeholder.
func (u *User) SnapshotName() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	if u.Email != nil {
		if local, _, ok := strings.Cut(*u.Email, "@"); ok && local != "" {
			return local
		}
	}
	return unknownUserName
}
