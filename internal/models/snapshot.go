package models

import "time"

// Snapshot is one observed member count. Snapshots sharing a Timestamp form a batch.
type Snapshot struct {
	ID          int64
	Timestamp   time.Time
	TargetName  string
	MemberCount int
}

// CountAt is a count together with the batch timestamp it was read from.
type CountAt struct {
	Count     int
	Timestamp time.Time
}

// BatchTotal is the sum of all counts in one batch.
type BatchTotal struct {
	Timestamp time.Time
	Total     int
}

// ParquetSnapshot is the export schema for snapshots.
type ParquetSnapshot struct {
	ID          int64  `parquet:"id"`
	Timestamp   int64  `parquet:"timestamp"` // unix seconds
	TargetName  string `parquet:"target_name,dict"`
	MemberCount int64  `parquet:"member_count"`
}

// ToParquet converts a snapshot to its export row.
func (s Snapshot) ToParquet() ParquetSnapshot {
	return ParquetSnapshot{
		ID:          s.ID,
		Timestamp:   s.Timestamp.Unix(),
		TargetName:  s.TargetName,
		MemberCount: int64(s.MemberCount),
	}
}
