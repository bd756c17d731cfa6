package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	database, err := InitDB("file::memory:")
	require.NoError(t, err)
	defer database.Close()
	database.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(database.DB, "../../migrations"))
	// running twice is a no-op
	require.NoError(t, RunMigrations(database.DB, "../../migrations"))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'challenges', 'submissions', 'sessions') ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"challenges", "sessions", "submissions", "users"}, tables)
}

func TestWithForeignKeys(t *testing.T) {
	testCases := []struct {
		dsn    string
		expect string
	}{
		{dsn: "app.db", expect: "app.db?_foreign_keys=on"},
		{dsn: "app.db?_journal_mode=WAL", expect: "app.db?_journal_mode=WAL&_foreign_keys=on"},
		{dsn: "app.db?_foreign_keys=off", expect: "app.db?_foreign_keys=off"},
		{dsn: "file::memory:?_fk=1", expect: "file::memory:?_fk=1"},
	}
	for _, tc := range testCases {
		t.Run(tc.dsn, func(t *testing.T) {
			assert.Equal(t, tc.expect, withForeignKeys(tc.dsn))
		})
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	database, err := InitDB(filepath.Join(t.TempDir(), "fk.db") + "?_journal_mode=WAL")
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, RunMigrations(database.DB, "../../migrations"))

	ctx := context.Background()
	const conns = 4
	database.SetMaxOpenConns(conns)
	for range conns {
		conn, err := database.Connx(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var enabled int
		require.NoError(t, conn.GetContext(ctx, &enabled, "PRAGMA foreign_keys"))
		assert.Equal(t, 1, enabled)

		_, err = conn.ExecContext(ctx, `INSERT INTO challenges (id, sponsor_id, title, description, start_date, deadline, status)
			VALUES ('c1', 'no-such-user', 't', 'd', '2025-01-01', '2025-02-01', 'active')`)
		assert.ErrorContains(t, err, "FOREIGN KEY constraint failed")
	}
}
