package models

import "time"

// TargetDelta is one target's count in the "to" batch and its change from the "from" batch.
type TargetDelta struct {
	Name  string
	Count int
	Delta int
}

// RegionMember is a region member that is present in the "to" batch.
type RegionMember struct {
	Name  string
	Count int
	Delta int
}

// RegionComparison aggregates a region across two batches.
type RegionComparison struct {
	Name     string
	Current  int
	Previous int
	Delta    int
	Members  []RegionMember
}

// Comparison is the full result of reconciling two batches.
type Comparison struct {
	Targets []TargetDelta
	Regions []RegionComparison
}

// Overview holds headline metrics for the latest batch.
type Overview struct {
	Total         int
	Growth        int
	GrowthPercent float64
	TargetCount   int
	AveragePer    int
	Largest       string
	LargestCount  int
}

// CollectionTime is a selectable batch, labelled by its calendar day.
type CollectionTime struct {
	Label     string
	Timestamp time.Time
}
