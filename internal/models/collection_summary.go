package models

import "time"

// CollectionStatus is the outcome of one collection run.
type CollectionStatus string

const (
	CollectionStatusCompleted CollectionStatus = "COMPLETED"
	CollectionStatusPartial   CollectionStatus = "PARTIAL_COMPLETE"
	CollectionStatusFailed    CollectionStatus = "FAILED"
)

// CollectionSummary describes one run of the collector.
type CollectionSummary struct {
	RunID      string
	Timestamp  time.Time
	Successful map[string]int
	Failed     []string
	Results    FetchResults
	Duration   time.Duration
	Status     CollectionStatus
	Error      string
}

// StatusFor derives the run status from success and failure counts.
func StatusFor(successes, failures int) CollectionStatus {
	switch {
	case successes == 0:
		return CollectionStatusFailed
	case failures > 0:
		return CollectionStatusPartial
	default:
		return CollectionStatusCompleted
	}
}
