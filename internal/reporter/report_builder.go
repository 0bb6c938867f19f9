package reporter

import (
	"context"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/differ"
	"github.com/aleister1102/membertrack/internal/models"
)

// SnapshotReader is the read side of the snapshot store used for reports.
type SnapshotReader interface {
	BatchTimestamps(ctx context.Context) ([]time.Time, error)
	CountsAt(ctx context.Context, t time.Time) (map[string]int, error)
}

// BuildLatestReport compares the latest collections of the two newest collection days.
// With a single day both sides are the same batch.
func BuildLatestReport(ctx context.Context, store SnapshotReader, regions []models.Region, loc *time.Location) (ReportInput, error) {
	return BuildDayReport(ctx, store, regions, "", "", loc)
}

// BuildDayReport compares the latest collections of two calendar days (YYYY-MM-DD in loc).
// Empty days fall back as in differ.SelectComparisonPair.
func BuildDayReport(ctx context.Context, store SnapshotReader, regions []models.Region, fromDay, toDay string, loc *time.Location) (ReportInput, error) {
	timestamps, err := store.BatchTimestamps(ctx)
	if err != nil {
		return ReportInput{}, common.WrapError(err, "failed to list batches")
	}

	from, to, err := differ.SelectComparisonPair(differ.CollectionTimes(timestamps, loc), fromDay, toDay)
	if err != nil {
		return ReportInput{}, err
	}

	return BuildReport(ctx, store, regions, from, to, loc)
}

// BuildReport compares the batches stored at from and to.
func BuildReport(ctx context.Context, store SnapshotReader, regions []models.Region, from, to time.Time, loc *time.Location) (ReportInput, error) {
	toCounts, err := store.CountsAt(ctx, to)
	if err != nil {
		return ReportInput{}, common.WrapError(err, "failed to load target batch")
	}
	fromCounts, err := store.CountsAt(ctx, from)
	if err != nil {
		return ReportInput{}, common.WrapError(err, "failed to load base batch")
	}

	var previous map[string]int
	if !from.Equal(to) {
		previous = fromCounts
	}

	return ReportInput{
		From:       models.CollectionTime{Label: from.In(loc).Format(time.DateOnly), Timestamp: from.In(loc)},
		To:         models.CollectionTime{Label: to.In(loc).Format(time.DateOnly), Timestamp: to.In(loc)},
		Comparison: differ.Compare(fromCounts, toCounts, regions),
		Overview:   differ.Summarize(toCounts, previous),
	}, nil
}
