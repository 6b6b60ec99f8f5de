package database

import (
	"context"
	"testing"

	"quiz-tutor/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := "CREATE TABLE a (ID NUMBER);\n\nCREATE INDEX i ON a (ID);\n  ;\n"
	assert.Equal(t, []string{"CREATE TABLE a (ID NUMBER)", "CREATE INDEX i ON a (ID)"}, splitStatements(script))
	assert.Empty(t, splitStatements("  \n"))
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db, config.DriverSQLite))
	// second run is a no-op
	require.NoError(t, RunMigrations(db, config.DriverSQLite))

	for _, table := range []string{"users", "results", "deleted_results"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table))
		assert.Equal(t, 1, n, table)
	}

	for _, index := range []string{"UQ_RESULTS_QUESTION", "UQ_DELETED_RESULTS_QUESTION"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", index))
		assert.Equal(t, 1, n, index)
	}
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	assert.Error(t, RunMigrations(nil, "postgres"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
