package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/store"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "sqlite3", driver)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}
	return database
}

type testEnv struct {
	users       *store.UserStore
	challenges  *store.ChallengeStore
	submissions *store.SubmissionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	return &testEnv{
		users:       store.NewUserStore(db),
		challenges:  store.NewChallengeStore(db),
		submissions: store.NewSubmissionStore(db),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, role *users.Role) *users.User {
	t.Helper()
	u := &users.User{
		ID:          uuid.New(),
		Email:       utils.Ptr(username + "@example.com"),
		Username:    username,
		DisplayName: username,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) createChallenge(t *testing.T, sponsor *users.User) *challenge.Challenge {
	t.Helper()
	now := time.Now().UTC()
	c := &challenge.Challenge{
		ID:          uuid.New(),
		SponsorID:   sponsor.ID,
		Title:       "Support Bot",
		Description: "Build a support bot",
		Difficulty:  "medium",
		StartDate:   now,
		Deadline:    now.AddDate(0, 1, 0),
		Status:      challenge.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, e.challenges.CreateChallenge(context.Background(), c))
	return c
}

func asUser(u *users.User) context.Context {
	return middleware.WithUser(context.Background(), u)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
