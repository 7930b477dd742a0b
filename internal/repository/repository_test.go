package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btc-metrics/internal/config"
	"btc-metrics/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, store.Init(), "Init should not return an error")
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot(i int) domain.Snapshot {
	return domain.Snapshot{
		MempoolSize:             fmt.Sprintf("%d", 4000+i),
		BlockHeight:             fmt.Sprintf("%d", 870000+i),
		TotalCirculatingBitcoin: "1978156250000000",
		MarketPrice:             "97000.12",
		AverageBlockSize:        "transport error fetching average block size: dial tcp: connection refused",
	}
}

func TestSQLiteStore_Init(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "init.db"))
	assert.NoError(t, store.Init())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_AppendCreatesTable(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-2 * time.Second)

	record, err := store.Append(ctx, sampleSnapshot(0))
	require.NoError(t, err, "first Append should create the table and insert")

	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, sampleSnapshot(0), record.Snapshot)
	assert.False(t, record.Timestamp.IsZero(), "timestamp should be generated by the store")
	assert.True(t, record.Timestamp.After(before), "timestamp %s should be write time", record.Timestamp)

	records, err := store.GetObservations(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, record.Snapshot, records[0].Snapshot)
}

func TestSQLiteStore_AppendOnly(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	const n = 6
	var appended []domain.ObservationRecord
	for i := 0; i < n; i++ {
		r, err := store.Append(ctx, sampleSnapshot(i))
		require.NoError(t, err)
		appended = append(appended, r)
	}

	for i := 1; i < n; i++ {
		assert.Greater(t, appended[i].ID, appended[i-1].ID, "ids should increase monotonically")
	}

	records, err := store.GetObservations(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, n)
	for i, r := range records {
		assert.Equal(t, sampleSnapshot(i), r.Snapshot, "row %d should be unchanged", i)
	}

	// case: limit and offset
	records, err = store.GetObservations(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, appended[2].ID, records[0].ID)

	// case: negative offset treated as 0
	records, err = store.GetObservations(ctx, 1, -3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, appended[0].ID, records[0].ID)
}

func TestSQLiteStore_ReadBeforeAppend(t *testing.T) {
	store := newTestSQLiteStore(t)

	records, err := store.GetObservations(context.Background(), 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_AppendAfterClose(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, store.Init())
	require.NoError(t, store.Close())

	_, err := store.Append(context.Background(), sampleSnapshot(0))
	assert.Error(t, err)
}

func TestSQLiteStore_CancelledContext(t *testing.T) {
	store := newTestSQLiteStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Append(ctx, sampleSnapshot(0))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestNew(t *testing.T) {
	store, err := New(config.StorageConfig{Type: config.StorageSQLite, SQLitePath: "x.db"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	store, err = New(config.StorageConfig{Type: config.StoragePostgres, PostgresDSN: "postgres://localhost/x"})
	require.NoError(t, err)
	assert.IsType(t, &PostgresStore{}, store)

	_, err = New(config.StorageConfig{Type: "inmemory"})
	assert.Error(t, err)
}
