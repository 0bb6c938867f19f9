package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/membertrack/internal/datastore"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	counts map[string]int
	calls  int
}

func (f *fakeFetcher) FetchAll(_ context.Context, targets []models.Target) models.FetchResults {
	f.calls++
	results := make(models.FetchResults, 0, len(targets))
	for _, t := range targets {
		if c, ok := f.counts[t.Name]; ok {
			results = append(results, models.NewSuccessResult(t, c))
		} else {
			results = append(results, models.NewFailureResult(t, models.ReasonParseMiss, errors.New("no count")))
		}
	}
	return results
}

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, map[string]int, time.Time) (time.Time, error) {
	return time.Time{}, s.err
}

type recordingNotifier struct {
	summaries []models.CollectionSummary
	reports   []string
}

func (n *recordingNotifier) SendCollectionNotification(_ context.Context, summary models.CollectionSummary, report []byte) {
	n.summaries = append(n.summaries, summary)
	n.reports = append(n.reports, string(report))
}

var testTargets = []models.Target{
	{Name: "A", URL: "https://t.me/a", Kind: models.KindPageScrape},
	{Name: "B", URL: "https://t.me/b", Kind: models.KindPageScrape},
	{Name: "C", URL: "https://t.me/c", Kind: models.KindPageScrape},
}

func newStore(t *testing.T) *datastore.SnapshotStore {
	t.Helper()
	store, err := datastore.NewSnapshotStore(filepath.Join(t.TempDir(), "members.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRun_PartialSuccessStoresSuccessfulSubset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	notifier := &recordingNotifier{}
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	o := NewCollectionOrchestrator(testTargets, &fakeFetcher{counts: map[string]int{"A": 100, "C": 300}}, store, notifier, zerolog.Nop())
	summary, err := o.Run(ctx, ts)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"A": 100, "C": 300}, summary.Successful)
	assert.Equal(t, []string{"B"}, summary.Failed)
	assert.Equal(t, models.CollectionStatusPartial, summary.Status)
	assert.True(t, summary.Timestamp.Equal(ts))
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.Results, 3)

	counts, err := store.CountsAt(ctx, ts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 100, "C": 300}, counts)

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, summary.RunID, notifier.summaries[0].RunID)
	assert.Contains(t, notifier.reports[0], "  - B (parse-miss)")
}

func TestRun_AllSuccessful(t *testing.T) {
	store := newStore(t)
	o := NewCollectionOrchestrator(testTargets, &fakeFetcher{counts: map[string]int{"A": 1, "B": 2, "C": 3}}, store, nil, zerolog.Nop())

	summary, err := o.Run(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusCompleted, summary.Status)
	assert.Empty(t, summary.Failed)
	assert.False(t, summary.Timestamp.IsZero())
}

func TestRun_ZeroSuccessesAppendsNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	notifier := &recordingNotifier{}

	o := NewCollectionOrchestrator(testTargets, &fakeFetcher{}, store, notifier, zerolog.Nop())
	summary, err := o.Run(ctx, time.Time{})
	require.ErrorIs(t, err, ErrNoCountsCollected)

	assert.Equal(t, models.CollectionStatusFailed, summary.Status)
	assert.Equal(t, []string{"A", "B", "C"}, summary.Failed)
	assert.NotEmpty(t, summary.Error)

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	require.Len(t, notifier.summaries, 1)
	assert.Contains(t, notifier.reports[0], "All targets failed!")
}

func TestRun_StoreFailureIsWrapped(t *testing.T) {
	storeErr := errors.New("disk full")
	o := NewCollectionOrchestrator(testTargets, &fakeFetcher{counts: map[string]int{"A": 1}}, failingStore{err: storeErr}, nil, zerolog.Nop())

	summary, err := o.Run(context.Background(), time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrNoCountsCollected)
	assert.Equal(t, models.CollectionStatusFailed, summary.Status)
}

func TestRun_EachRunHasDistinctID(t *testing.T) {
	store := newStore(t)
	o := NewCollectionOrchestrator(testTargets, &fakeFetcher{counts: map[string]int{"A": 1}}, store, nil, zerolog.Nop())

	first, err := o.Run(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := o.Run(context.Background(), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}
