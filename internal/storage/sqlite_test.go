//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "namegen.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	in := testRun("r1", time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	require.NoError(t, store.SaveRun(ctx, in))
	in.FinalLoss = 1.5
	require.NoError(t, store.SaveRun(ctx, in))

	out, ok, err := store.GetRun(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, testRun("old", base)))
	require.NoError(t, store.SaveRun(ctx, testRun("new", base.Add(time.Hour))))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
}

func TestSQLiteStoreLossHistoryAndSamples(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.SaveLossHistory(ctx, "r1", []float64{3.0, 2.5}))
	history, ok, err := store.GetLossHistory(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{3.0, 2.5}, history)

	require.NoError(t, store.SaveSamples(ctx, "r1", testSamples()))
	samples, ok, err := store.GetSamples(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSamples(), samples)

	_, ok, err = store.GetLossHistory(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(KindSQLite, filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, CloseIfSupported(store))
}
