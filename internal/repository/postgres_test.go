package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when POSTGRES_TEST_DSN is set.
func TestPostgresStore_Append(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	store := NewPostgresStore(dsn)
	require.NoError(t, store.Init())
	defer store.Close()

	ctx := context.Background()
	_, err := store.pool.Exec(ctx, "DROP TABLE IF EXISTS metrics")
	require.NoError(t, err)

	first, err := store.Append(ctx, sampleSnapshot(0))
	require.NoError(t, err)
	second, err := store.Append(ctx, sampleSnapshot(1))
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	records, err := store.GetObservations(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, sampleSnapshot(0), records[0].Snapshot)
	assert.Equal(t, sampleSnapshot(1), records[1].Snapshot)
}
