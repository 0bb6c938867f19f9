package datastore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "nested", "members.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var (
	t1 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	t3 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
)

func TestSnapshotStore_EmptyStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	latest, err := store.LatestCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	before, err := store.CountsBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, before)

	totals, err := store.BatchTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestSnapshotStore_LatestAndBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, map[string]int{"A": 100, "B": 50}, t1)
	require.NoError(t, err)
	_, err = store.Append(ctx, map[string]int{"A": 110, "C": 5}, t2)
	require.NoError(t, err)

	latest, err := store.LatestCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.CountAt{
		"A": {Count: 110, Timestamp: t2},
		"C": {Count: 5, Timestamp: t2},
	}, latest)

	before, err := store.CountsBefore(ctx, t2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 100, "B": 50}, before)

	// strictly earlier: nothing precedes the first batch
	before, err = store.CountsBefore(ctx, t1)
	require.NoError(t, err)
	assert.Empty(t, before)

	// a time between batches resolves to the earlier one
	before, err = store.CountsBefore(ctx, t2.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 100, "B": 50}, before)

	// sub-second instants still see the batch in the same second
	before, err = store.CountsBefore(ctx, t2.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 110, "C": 5}, before)
}

func TestSnapshotStore_BatchTotalsMatchSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batches := []struct {
		ts     time.Time
		counts map[string]int
	}{
		{t1, map[string]int{"A": 10, "B": 20}},
		{t2, map[string]int{"A": 11, "B": 22, "C": 1}},
		{t3, map[string]int{"B": 0}},
	}
	for _, b := range batches {
		_, err := store.Append(ctx, b.counts, b.ts)
		require.NoError(t, err)
	}

	totals, err := store.BatchTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.BatchTotal{
		{Timestamp: t1, Total: 30},
		{Timestamp: t2, Total: 34},
		{Timestamp: t3, Total: 0},
	}, totals)

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	sums := map[time.Time]int{}
	for _, s := range snapshots {
		sums[s.Timestamp] += s.MemberCount
	}
	for _, total := range totals {
		assert.Equal(t, sums[total.Timestamp], total.Total)
	}

	timestamps, err := store.BatchTimestamps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{t1, t2, t3}, timestamps)
}

func TestSnapshotStore_AllSnapshotsOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// appended out of time order
	_, err := store.Append(ctx, map[string]int{"A": 2}, t2)
	require.NoError(t, err)
	_, err = store.Append(ctx, map[string]int{"A": 1, "B": 1}, t1)
	require.NoError(t, err)

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	for i := 1; i < len(snapshots); i++ {
		assert.False(t, snapshots[i].Timestamp.Before(snapshots[i-1].Timestamp))
	}
	assert.Equal(t, t2, snapshots[2].Timestamp)

	names, err := store.AllTargetNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	history, err := store.TargetHistory(ctx, "A")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].MemberCount)
	assert.Equal(t, 2, history[1].MemberCount)
}

func TestSnapshotStore_AppendValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, map[string]int{"A": 1, "B": -1}, t1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = store.Append(ctx, map[string]int{strings.Repeat("x", 51): 1}, t1)
	require.Error(t, err)

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots, "rejected batches must not be partially written")

	// empty batch is a no-op
	_, err = store.Append(ctx, map[string]int{}, t1)
	require.NoError(t, err)
	timestamps, err := store.BatchTimestamps(ctx)
	require.NoError(t, err)
	assert.Empty(t, timestamps)
}

func TestSnapshotStore_AppendDefaultsToNowAndTruncates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before := time.Now().Truncate(time.Second)
	ts, err := store.Append(ctx, map[string]int{"A": 1}, time.Time{})
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
	assert.Equal(t, ts, ts.Truncate(time.Second))

	// same-second appends merge into one batch
	_, err = store.Append(ctx, map[string]int{"B": 2}, ts.Add(300*time.Millisecond))
	require.NoError(t, err)
	counts, err := store.CountsAt(ctx, ts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, counts)
}

func TestSnapshotStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, map[string]int{"A": 1}, t1)
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx))

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestSnapshotStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.db")
	ctx := context.Background()

	store, err := NewSnapshotStore(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = store.Append(ctx, map[string]int{"A": 42}, t1)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSnapshotStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.LatestCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, latest["A"].Count)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:data/members.db?"+dsnPragmas, sqliteDSN("data/members.db"))
	assert.Equal(t, "file:/tmp/a%3Fb%23c%25d.db?"+dsnPragmas, sqliteDSN("/tmp/a?b#c%d.db"))
}

func TestSnapshotStore_PathWithURIMetacharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd dir#1")
	path := filepath.Join(dir, "members?v=2.db")
	ctx := context.Background()

	store, err := NewSnapshotStore(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = store.Append(ctx, map[string]int{"A": 7}, t1)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")

	reopened, err := NewSnapshotStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.LatestCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, latest["A"].Count)
}

func TestNewSnapshotStore_Unavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewSnapshotStore(filepath.Join(blocker, "members.db"), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSnapshotStore_ClosedStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.LatestCounts(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestSnapshotStore_ExportParquet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, map[string]int{"A": 10, "B": 20}, t1)
	require.NoError(t, err)
	_, err = store.Append(ctx, map[string]int{"A": 12}, t2)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := store.ExportParquet(ctx, &buf, "zstd")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := parquet.Read[models.ParquetSnapshot](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].TargetName)
	assert.Equal(t, t1.Unix(), rows[0].Timestamp)
	assert.Equal(t, int64(12), rows[2].MemberCount)
}
