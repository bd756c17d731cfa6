package store

import (
	"context"

	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByEmailQuery    = "SELECT * FROM users WHERE email = ? COLLATE NOCASE"
	getUserByUsernameQuery = "SELECT * FROM users WHERE username = ?"
	getUserByProviderQuery = `
        SELECT * FROM users
        WHERE provider = ?
        AND provider_id = ?
    `
	usernameExistsQuery = "SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)"
	createUserQuery     = `
		INSERT INTO users (id, email, username, display_name, role, avatar_url, provider, provider_id,
			password_hash, company_name, github_username, created_at) VALUES
		(:id, :email, :username, :display_name, :role, :avatar_url, :provider, :provider_id,
			:password_hash, :company_name, :github_username, :created_at)
	`
	updateUserProfileQuery = `
		UPDATE users SET
		display_name = :display_name,
		avatar_url = :avatar_url,
		role = :role
		WHERE id = :id
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserByEmailQuery, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserByUsernameQuery, username); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, usernameExistsQuery, username)
	return exists, err
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserProfile(ctx context.Context, user *users.User) error {
	res, err := s.db.NamedExecContext(ctx, updateUserProfileQuery, user)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
