package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/aleister1102/membertrack/internal/reporter"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoCountsCollected is returned when every target failed; nothing is stored.
var ErrNoCountsCollected = errors.New("no member counts collected")

// Fetcher collects counts for a list of targets.
type Fetcher interface {
	FetchAll(ctx context.Context, targets []models.Target) models.FetchResults
}

// SnapshotWriter persists one batch of counts.
type SnapshotWriter interface {
	Append(ctx context.Context, counts map[string]int, ts time.Time) (time.Time, error)
}

// Notifier is told about every finished run.
type Notifier interface {
	SendCollectionNotification(ctx context.Context, summary models.CollectionSummary, report []byte)
}

// CollectionOrchestrator runs the fetch -> filter -> append workflow.
type CollectionOrchestrator struct {
	targets  []models.Target
	fetcher  Fetcher
	store    SnapshotWriter
	notifier Notifier
	logger   zerolog.Logger
}

// NewCollectionOrchestrator creates a new CollectionOrchestrator. notifier may be nil.
func NewCollectionOrchestrator(targets []models.Target, fetcher Fetcher, store SnapshotWriter, notifier Notifier, logger zerolog.Logger) *CollectionOrchestrator {
	return &CollectionOrchestrator{
		targets:  targets,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "CollectionOrchestrator").Logger(),
	}
}

// Run performs one collection. A zero ts means "now".
// Partial success is not an error: the successful subset is stored and failures are listed in the summary.
func (o *CollectionOrchestrator) Run(ctx context.Context, ts time.Time) (models.CollectionSummary, error) {
	start := time.Now()
	summary := models.CollectionSummary{
		RunID:     uuid.NewString(),
		Timestamp: ts,
	}
	if summary.Timestamp.IsZero() {
		summary.Timestamp = start
	}
	summary.Timestamp = summary.Timestamp.Truncate(time.Second).UTC()

	runLogger := o.logger.With().Str("run_id", summary.RunID).Logger()
	runLogger.Info().Int("targets", len(o.targets)).Msg("Starting collection")

	summary.Results = o.fetcher.FetchAll(ctx, o.targets)
	summary.Successful = summary.Results.Successful()
	summary.Failed = summary.Results.Failed()
	summary.Status = models.StatusFor(len(summary.Successful), len(summary.Failed))

	var runErr error
	if len(summary.Successful) == 0 {
		runErr = ErrNoCountsCollected
	} else {
		stored, err := o.store.Append(ctx, summary.Successful, summary.Timestamp)
		if err != nil {
			runErr = common.WrapError(err, "failed to store collected counts")
			summary.Status = models.CollectionStatusFailed
		} else {
			summary.Timestamp = stored
		}
	}

	summary.Duration = time.Since(start)
	if runErr != nil {
		summary.Error = runErr.Error()
		runLogger.Error().Err(runErr).Strs("failed", summary.Failed).Msg("Collection failed")
	} else {
		runLogger.Info().
			Int("successful", len(summary.Successful)).
			Strs("failed", summary.Failed).
			Str("status", string(summary.Status)).
			Dur("duration", summary.Duration).
			Msg("Collection complete")
	}

	if o.notifier != nil {
		o.notifier.SendCollectionNotification(ctx, summary, []byte(reporter.CollectionReport(summary)))
	}

	return summary, runErr
}
