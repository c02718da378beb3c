package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sandplay/internal/db"
)

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandplay.db")
	ctx := context.Background()

	first, err := db.Open(path)
	require.NoError(t, err)
	versions, err := first.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_rounds.sql", "0002_sandbox_analyses.sql"}, versions)
	require.NoError(t, first.Close())

	second, err := db.Open(path)
	require.NoError(t, err)
	defer second.Close()
	again, err := second.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, versions, again)

	for _, table := range []string{"rounds", "round_results", "sandbox_analyses"} {
		var name string
		err := second.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}
