package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@h:5432/d?sslmode=disable", migrateURL("postgres://u:p@h:5432/d?sslmode=disable"))
	require.Equal(t, "pgx5://u@h/d", migrateURL("postgresql://u@h/d"))
	require.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
