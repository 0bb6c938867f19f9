package datastore

import "net/url"

const schema = `
CREATE TABLE IF NOT EXISTS member_counts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	target_name VARCHAR(50) NOT NULL,
	member_count INTEGER NOT NULL CHECK (member_count >= 0)
);
CREATE INDEX IF NOT EXISTS idx_member_counts_timestamp ON member_counts(timestamp);
CREATE INDEX IF NOT EXISTS idx_member_counts_target ON member_counts(target_name);
CREATE INDEX IF NOT EXISTS idx_member_counts_target_timestamp ON member_counts(target_name, timestamp);
`

// dsnPragmas are applied to every pooled connection.
const dsnPragmas = "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// sqliteDSN builds a file: URI for path; '?', '#' and '%' in the path are escaped.
func sqliteDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + dsnPragmas
}

const (
	insertSnapshotQuery = `INSERT INTO member_counts (timestamp, target_name, member_count) VALUES (?, ?, ?)`

	selectAllSnapshotsQuery = `SELECT id, timestamp, target_name, member_count FROM member_counts ORDER BY timestamp, id`

	selectLatestQuery = `SELECT target_name, member_count, timestamp FROM member_counts
		WHERE timestamp = (SELECT MAX(timestamp) FROM member_counts) ORDER BY id`

	selectBeforeQuery = `SELECT target_name, member_count FROM member_counts
		WHERE timestamp = (SELECT MAX(timestamp) FROM member_counts WHERE timestamp < ?) ORDER BY id`

	selectAtQuery = `SELECT target_name, member_count FROM member_counts WHERE timestamp = ? ORDER BY id`

	selectBatchTotalsQuery = `SELECT timestamp, SUM(member_count) FROM member_counts GROUP BY timestamp ORDER BY timestamp`

	selectBatchTimestampsQuery = `SELECT DISTINCT timestamp FROM member_counts ORDER BY timestamp`

	selectTargetNamesQuery = `SELECT DISTINCT target_name FROM member_counts ORDER BY target_name`

	selectTargetHistoryQuery = `SELECT id, timestamp, target_name, member_count FROM member_counts
		WHERE target_name = ? ORDER BY timestamp, id`

	deleteAllQuery = `DELETE FROM member_counts`
)
