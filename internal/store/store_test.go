package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every pooled connection would open its own empty in-memory database
	database.SetMaxOpenConns(1)

	migrateTestDB(t, database)
	return database
}

// setupFileDB opens a WAL database under t.TempDir() with an unbounded pool.
func setupFileDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=on"
	database, err := sqlx.Connect("sqlite3", dsn)
	require.NoError(t, err, "Failed to connect to file DB")
	t.Cleanup(func() { database.Close() })

	migrateTestDB(t, database)
	return database
}

func migrateTestDB(t *testing.T, database *sqlx.DB) {
	t.Helper()

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}
}

func createTestUser(t *testing.T, s *UserStore, username string, role users.Role) *users.User {
	t.Helper()
	u := &users.User{
		ID:          uuid.New(),
		Email:       utils.Ptr(username + "@example.com"),
		Username:    username,
		DisplayName: username,
		Role:        utils.Ptr(role),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func newTestChallenge(sponsorID uuid.UUID, title string, createdAt time.Time) *challenge.Challenge {
	return &challenge.Challenge{
		ID:               uuid.New(),
		SponsorID:        sponsorID,
		Title:            title,
		Description:      "Build something",
		Requirements:     "Ship it",
		PrizeAmount:      decimal.NewNullDecimal(decimal.RequireFromString("1500.50")),
		PrizeDescription: "Cash",
		Category:         "nlp",
		Difficulty:       "medium",
		StartDate:        createdAt,
		Deadline:         createdAt.AddDate(0, 1, 0),
		Status:           challenge.StatusActive,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func newTestSubmission(challengeID, userID uuid.UUID, description string, at time.Time) *challenge.Submission {
	return &challenge.Submission{
		ID:             uuid.New(),
		ChallengeID:    challengeID,
		UserID:         userID,
		RepositoryURL:  "https://github.com/x/y",
		Description:    description,
		Title:          challenge.DeriveTitle(description),
		Score:          utils.Ptr(0.0),
		Status:         challenge.SubmissionUnderReview,
		SubmissionDate: at,
		UserName:       utils.Ptr("builder"),
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestCreateAndGetChallenge(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	sponsor := createTestUser(t, NewUserStore(db), "acme", users.RoleSponsor)
	store := NewChallengeStore(db)

	c := newTestChallenge(sponsor.ID, "LLM Support Bot", time.Now().UTC())
	require.NoError(t, store.CreateChallenge(ctx, c))

	fetched, err := store.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, fetched.ID)
	assert.Equal(t, c.SponsorID, fetched.SponsorID)
	assert.Equal(t, c.Title, fetched.Title)
	assert.Equal(t, challenge.StatusActive, fetched.Status)
	require.True(t, fetched.PrizeAmount.Valid)
	assert.True(t, c.PrizeAmount.Decimal.Equal(fetched.PrizeAmount.Decimal))
	assert.WithinDuration(t, c.StartDate, fetched.StartDate, time.Second)
	assert.WithinDuration(t, c.CreatedAt, fetched.CreatedAt, time.Second)

	_, err = store.GetChallenge(ctx, uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestChallengeNullPrize(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	sponsor := createTestUser(t, NewUserStore(db), "acme", users.RoleSponsor)
	store := NewChallengeStore(db)

	c := newTestChallenge(sponsor.ID, "No prize", time.Now().UTC())
	c.PrizeAmount = decimal.NullDecimal{}
	require.NoError(t, store.CreateChallenge(ctx, c))

	fetched, err := store.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, fetched.PrizeAmount.Valid)
}

func TestListChallengesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userStore := NewUserStore(db)
	acme := createTestUser(t, userStore, "acme", users.RoleSponsor)
	globex := createTestUser(t, userStore, "globex", users.RoleSponsor)
	store := NewChallengeStore(db)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	first := newTestChallenge(acme.ID, "first", base)
	second := newTestChallenge(globex.ID, "second", base.Add(time.Hour))
	third := newTestChallenge(acme.ID, "third", base.Add(2*time.Hour))
	for _, c := range []*challenge.Challenge{first, second, third} {
		require.NoError(t, store.CreateChallenge(ctx, c))
	}

	all, err := store.ListChallenges(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{all[0].Title, all[1].Title, all[2].Title})

	mine, err := store.ListChallengesBySponsor(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "third", mine[0].Title)
	assert.Equal(t, "first", mine[1].Title)
}

func TestUpdateChallengeKeepsStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	sponsor := createTestUser(t, NewUserStore(db), "acme", users.RoleSponsor)
	store := NewChallengeStore(db)

	created := time.Now().UTC().Add(-time.Hour)
	c := newTestChallenge(sponsor.ID, "before", created)
	c.Status = challenge.StatusDraft
	require.NoError(t, store.CreateChallenge(ctx, c))

	c.Title = "after"
	c.Status = challenge.StatusCompleted
	c.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateChallenge(ctx, c))

	fetched, err := store.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", fetched.Title)
	assert.Equal(t, challenge.StatusDraft, fetched.Status)
	assert.True(t, fetched.UpdatedAt.After(fetched.CreatedAt))

	missing := newTestChallenge(sponsor.ID, "missing", created)
	assert.ErrorIs(t, store.UpdateChallenge(ctx, missing), sql.ErrNoRows)
}

func TestUpsertSubmission(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userStore := NewUserStore(db)
	sponsor := createTestUser(t, userStore, "acme", users.RoleSponsor)
	candidate := createTestUser(t, userStore, "schen", users.RoleCandidate)
	c := newTestChallenge(sponsor.ID, "LLM Support Bot", time.Now().UTC())
	require.NoError(t, NewChallengeStore(db).CreateChallenge(ctx, c))

	store := NewSubmissionStore(db)
	at := time.Now().UTC().Add(-time.Hour)

	first := newTestSubmission(c.ID, candidate.ID, "first attempt", at)
	created, err := store.UpsertSubmission(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	originalID := first.ID

	// simulate a judged row before the resubmission
	_, err = db.Exec("UPDATE submissions SET score = 91.5, status = 'approved' WHERE id = ?", originalID)
	require.NoError(t, err)

	second := newTestSubmission(c.ID, candidate.ID, "second attempt", time.Now().UTC())
	created, err = store.UpsertSubmission(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, originalID, second.ID)
	assert.Equal(t, "second attempt", second.Description)
	assert.Equal(t, challenge.SubmissionUnderReview, second.Status)
	assert.Equal(t, 0.0, second.ScoreOrZero())
	assert.WithinDuration(t, at, second.CreatedAt, time.Second)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM submissions WHERE challenge_id = ? AND user_id = ?", c.ID, candidate.ID))
	assert.Equal(t, 1, count)
}

func TestConcurrentUpsertKeepsOneRow(t *testing.T) {
	db := setupFileDB(t)
	ctx := context.Background()

	userStore := NewUserStore(db)
	sponsor := createTestUser(t, userStore, "acme", users.RoleSponsor)
	candidate := createTestUser(t, userStore, "schen", users.RoleCandidate)
	c := newTestChallenge(sponsor.ID, "LLM Support Bot", time.Now().UTC())
	require.NoError(t, NewChallengeStore(db).CreateChallenge(ctx, c))

	store := NewSubmissionStore(db)
	const writers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
		ids     = map[uuid.UUID]bool{}
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := newTestSubmission(c.ID, candidate.ID, fmt.Sprintf("attempt %d", i), time.Now().UTC())
			isNew, err := store.UpsertSubmission(ctx, sub)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if isNew {
				created++
			}
			ids[sub.ID] = true
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM submissions WHERE challenge_id = ? AND user_id = ?", c.ID, candidate.ID))
	assert.Equal(t, 1, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	orphan := newTestChallenge(uuid.New(), "No sponsor", time.Now().UTC())
	err := NewChallengeStore(db).CreateChallenge(ctx, orphan)
	assert.ErrorContains(t, err, "FOREIGN KEY constraint failed")

	sponsor := createTestUser(t, NewUserStore(db), "acme", users.RoleSponsor)
	_, err = NewSubmissionStore(db).UpsertSubmission(ctx, newTestSubmission(uuid.New(), sponsor.ID, "lost", time.Now().UTC()))
	assert.ErrorContains(t, err, "FOREIGN KEY constraint failed")
}

func TestSubmissionListOrdering(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userStore := NewUserStore(db)
	sponsor := createTestUser(t, userStore, "acme", users.RoleSponsor)
	alice := createTestUser(t, userStore, "alice", users.RoleCandidate)
	bob := createTestUser(t, userStore, "bob", users.RoleCandidate)

	challengeStore := NewChallengeStore(db)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c1 := newTestChallenge(sponsor.ID, "c1", base)
	c2 := newTestChallenge(sponsor.ID, "c2", base.Add(time.Minute))
	require.NoError(t, challengeStore.CreateChallenge(ctx, c1))
	require.NoError(t, challengeStore.CreateChallenge(ctx, c2))

	store := NewSubmissionStore(db)
	seed := []struct {
		challengeID uuid.UUID
		userID      uuid.UUID
		score       float64
		at          time.Time
	}{
		{c1.ID, alice.ID, 70, base.Add(time.Hour)},
		{c1.ID, bob.ID, 90, base.Add(2 * time.Hour)},
		{c2.ID, alice.ID, 95, base.Add(3 * time.Hour)},
	}
	for _, sd := range seed {
		sub := newTestSubmission(sd.challengeID, sd.userID, "solution", sd.at)
		sub.Score = utils.Ptr(sd.score)
		_, err := store.UpsertSubmission(ctx, sub)
		require.NoError(t, err)
	}

	board, err := store.ListByChallenge(ctx, c1.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, bob.ID, board[0].UserID)
	assert.Equal(t, alice.ID, board[1].UserID)

	history, err := store.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, c2.ID, history[0].ChallengeID)

	global, err := store.ListAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, 95.0, global[0].ScoreOrZero())
	assert.Equal(t, 90.0, global[1].ScoreOrZero())
}

func TestUpdateSubmissionStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userStore := NewUserStore(db)
	sponsor := createTestUser(t, userStore, "acme", users.RoleSponsor)
	candidate := createTestUser(t, userStore, "schen", users.RoleCandidate)
	c := newTestChallenge(sponsor.ID, "c", time.Now().UTC())
	require.NoError(t, NewChallengeStore(db).CreateChallenge(ctx, c))

	store := NewSubmissionStore(db)
	sub := newTestSubmission(c.ID, candidate.ID, "solution", time.Now().UTC())
	_, err := store.UpsertSubmission(ctx, sub)
	require.NoError(t, err)

	require.NoError(t, store.UpdateSubmissionStatus(ctx, sub.ID, challenge.SubmissionApproved, time.Now().UTC()))
	fetched, err := store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.SubmissionApproved, fetched.Status)

	assert.ErrorIs(t, store.UpdateSubmissionStatus(ctx, uuid.New(), challenge.SubmissionApproved, time.Now().UTC()), sql.ErrNoRows)
}

func TestUserStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	store := NewUserStore(db)
	u := createTestUser(t, store, "schen", users.RoleCandidate)

	byEmail, err := store.GetUserByEmail(ctx, "SCHEN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := store.GetUserByUsername(ctx, "schen")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	require.NotNil(t, byName.Role)
	assert.Equal(t, users.RoleCandidate, *byName.Role)

	exists, err := store.UsernameExists(ctx, "schen")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)

	u.DisplayName = "Sarah Chen"
	u.AvatarURL = utils.Ptr("https://cdn.example.com/a.png")
	require.NoError(t, store.UpdateUserProfile(ctx, u))
	fetched, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Chen", fetched.DisplayName)
	assert.Equal(t, "https://cdn.example.com/a.png", utils.OrZero(fetched.AvatarURL))

	duplicate := &users.User{ID: uuid.New(), Username: "schen", CreatedAt: time.Now().UTC()}
	assert.Error(t, store.CreateUser(ctx, duplicate))

	_, err = store.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserWithoutRole(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	store := NewUserStore(db)
	u := &users.User{
		ID:         uuid.New(),
		Username:   "oauth-user",
		Provider:   utils.Ptr("github"),
		ProviderID: utils.Ptr("42"),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(ctx, u))

	fetched, err := store.GetUserByProvider(ctx, "github", "42")
	require.NoError(t, err)
	assert.Nil(t, fetched.Role)
	assert.Nil(t, fetched.Email)
}
