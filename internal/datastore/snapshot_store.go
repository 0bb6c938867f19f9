package datastore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SnapshotStore persists member count snapshots in SQLite.
// Snapshots that share a timestamp form one collection batch.
type SnapshotStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// NewSnapshotStore opens (creating if needed) the database at path and ensures the schema.
func NewSnapshotStore(path string, logger zerolog.Logger) (*SnapshotStore, error) {
	storeLogger := logger.With().Str("component", "SnapshotStore").Str("db_path", path).Logger()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			storeLogger.Error().Err(err).Str("directory", dir).Msg("Failed to create database directory")
			return nil, common.WrapErrorf(ErrStoreUnavailable, "failed to create database directory %s: %v", dir, err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, common.WrapErrorf(ErrStoreUnavailable, "failed to open %s: %v", path, err)
	}

	store := &SnapshotStore{db: db, path: path, logger: storeLogger}
	if err := store.initSchema(); err != nil {
		db.Close()
		storeLogger.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, common.WrapErrorf(ErrStoreUnavailable, "failed to initialize schema: %v", err)
	}

	storeLogger.Info().Msg("Snapshot store ready")
	return store, nil
}

func (s *SnapshotStore) initSchema() error {
	if err := s.db.Ping(); err != nil {
		return err
	}
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Append stores one batch atomically and returns its timestamp. A zero ts means now.
// Invalid input (negative count, over-long name) rejects the whole batch.
func (s *SnapshotStore) Append(ctx context.Context, counts map[string]int, ts time.Time) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, ErrStoreClosed
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.Truncate(time.Second).UTC()

	if len(counts) == 0 {
		return ts, nil
	}

	names := make([]string, 0, len(counts))
	for name, count := range counts {
		if name == "" || utf8.RuneCountInString(name) > models.MaxTargetNameLength {
			return time.Time{}, common.NewValidationError("target_name", name, "must be 1-50 characters")
		}
		if count < 0 {
			return time.Time{}, common.NewValidationError("member_count", count, "must not be negative")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, common.WrapError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSnapshotQuery)
	if err != nil {
		return time.Time{}, common.WrapError(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, ts.Unix(), name, counts[name]); err != nil {
			return time.Time{}, common.WrapErrorf(err, "failed to insert snapshot for %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, common.WrapError(err, "failed to commit batch")
	}

	s.logger.Info().Int("snapshots", len(names)).Time("timestamp", ts).Msg("Stored collection batch")
	return ts, nil
}

// AllSnapshots returns every snapshot ordered by timestamp, then insertion order.
func (s *SnapshotStore) AllSnapshots(ctx context.Context) ([]models.Snapshot, error) {
	return s.querySnapshots(ctx, selectAllSnapshotsQuery)
}

// TargetHistory returns one target's snapshots in time order.
func (s *SnapshotStore) TargetHistory(ctx context.Context, name string) ([]models.Snapshot, error) {
	return s.querySnapshots(ctx, selectTargetHistoryQuery, name)
}

func (s *SnapshotStore) querySnapshots(ctx context.Context, query string, args ...any) ([]models.Snapshot, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(err, "failed to query snapshots")
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var (
			snap models.Snapshot
			unix int64
		)
		if err := rows.Scan(&snap.ID, &unix, &snap.TargetName, &snap.MemberCount); err != nil {
			return nil, common.WrapError(err, "failed to scan snapshot")
		}
		snap.Timestamp = fromUnix(unix)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// LatestCounts returns the counts of the most recent batch. Empty when the store is empty.
func (s *SnapshotStore) LatestCounts(ctx context.Context) (map[string]models.CountAt, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, selectLatestQuery)
	if err != nil {
		return nil, common.WrapError(err, "failed to query latest counts")
	}
	defer rows.Close()

	latest := make(map[string]models.CountAt)
	for rows.Next() {
		var (
			name  string
			count int
			unix  int64
		)
		if err := rows.Scan(&name, &count, &unix); err != nil {
			return nil, common.WrapError(err, "failed to scan latest count")
		}
		latest[name] = models.CountAt{Count: count, Timestamp: fromUnix(unix)}
	}
	return latest, rows.Err()
}

// CountsBefore returns the counts of the latest batch strictly earlier than t.
func (s *SnapshotStore) CountsBefore(ctx context.Context, t time.Time) (map[string]int, error) {
	return s.queryCounts(ctx, selectBeforeQuery, exclusiveUpperBound(t))
}

// CountsAt returns the counts of the batch stored at exactly t (second precision).
func (s *SnapshotStore) CountsAt(ctx context.Context, t time.Time) (map[string]int, error) {
	return s.queryCounts(ctx, selectAtQuery, t.Unix())
}

func (s *SnapshotStore) queryCounts(ctx context.Context, query string, args ...any) (map[string]int, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(err, "failed to query counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, common.WrapError(err, "failed to scan count")
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// BatchTotals returns the summed count of every batch in time order.
func (s *SnapshotStore) BatchTotals(ctx context.Context) ([]models.BatchTotal, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, selectBatchTotalsQuery)
	if err != nil {
		return nil, common.WrapError(err, "failed to query batch totals")
	}
	defer rows.Close()

	var totals []models.BatchTotal
	for rows.Next() {
		var unix, total int64
		if err := rows.Scan(&unix, &total); err != nil {
			return nil, common.WrapError(err, "failed to scan batch total")
		}
		totals = append(totals, models.BatchTotal{Timestamp: fromUnix(unix), Total: int(total)})
	}
	return totals, rows.Err()
}

// BatchTimestamps returns the distinct batch timestamps in ascending order.
func (s *SnapshotStore) BatchTimestamps(ctx context.Context) ([]time.Time, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, selectBatchTimestampsQuery)
	if err != nil {
		return nil, common.WrapError(err, "failed to query batch timestamps")
	}
	defer rows.Close()

	var timestamps []time.Time
	for rows.Next() {
		var unix int64
		if err := rows.Scan(&unix); err != nil {
			return nil, common.WrapError(err, "failed to scan batch timestamp")
		}
		timestamps = append(timestamps, fromUnix(unix))
	}
	return timestamps, rows.Err()
}

// AllTargetNames returns every name that appears in history, sorted.
func (s *SnapshotStore) AllTargetNames(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, selectTargetNamesQuery)
	if err != nil {
		return nil, common.WrapError(err, "failed to query target names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, common.WrapError(err, "failed to scan target name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Clear deletes all snapshots.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	result, err := s.db.ExecContext(ctx, deleteAllQuery)
	if err != nil {
		return common.WrapError(err, "failed to clear snapshots")
	}
	deleted, _ := result.RowsAffected()
	s.logger.Warn().Int64("deleted", deleted).Msg("Cleared all snapshots")
	return nil
}

func fromUnix(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

// exclusiveUpperBound converts t to the smallest stored second that is not before t.
func exclusiveUpperBound(t time.Time) int64 {
	if t.Truncate(time.Second).Equal(t) {
		return t.Unix()
	}
	return t.Unix() + 1
}
