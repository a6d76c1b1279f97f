package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/pursuit/pkg/records"
)

// schemaVersion is the current database schema version.
const schemaVersion = 1

// Start times and durations are stored as integer nanoseconds so both
// drivers read back identical values.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    job TEXT NOT NULL,
    query TEXT NOT NULL,
    revision TEXT NOT NULL DEFAULT '',
    total INTEGER NOT NULL,
    matched INTEGER NOT NULL,
    started INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
CREATE INDEX IF NOT EXISTS idx_runs_job ON runs(job);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const selectSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`

const runColumns = "id, job, query, revision, total, matched, started, duration, error"

// SQLiteConfig configures a SQLiteStore.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is records.DriverSQLite or records.DriverSQLite3.
	// Default: records.DriverSQLite
	Driver string

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore stores runs in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the database at cfg.Path and creates the schema if
// needed.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, storageError("sqlite", "open", errors.New("database path is required"))
	}
	if cfg.Driver == "" {
		cfg.Driver = records.DriverSQLite
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history.sqlite")

	db, err := records.OpenDB(cfg.Driver, cfg.Path, cfg.BusyTimeout)
	if err != nil {
		return nil, storageError("sqlite", "open", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initialize(cfg.WALMode); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("run history opened",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
	)
	return s, nil
}

func (s *SQLiteStore) initialize(wal bool) error {
	if wal {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return storageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return storageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, schemaVersion); err != nil {
		return storageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(selectSchemaVersion).Scan(&version); err != nil {
		return storageError("sqlite", "get_schema_version", err)
	}
	if version != schemaVersion {
		return storageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", schemaVersion, version))
	}
	return nil
}

// Record inserts run.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return storageError("sqlite", "record", errors.New("run ID is required"))
	}

	var errVal interface{}
	if run.Error != "" {
		errVal = run.Error
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Job, run.Query, run.Revision,
		run.Total, run.Matched,
		run.Started.UnixNano(), int64(run.Duration),
		errVal,
	)
	if err != nil {
		return storageError("sqlite", "record", err)
	}
	return nil
}

// List returns matching runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*Run, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	where, args := buildWhereClause(f)
	query := "SELECT " + runColumns + " FROM runs" + where + " ORDER BY started DESC, id DESC"
	if limit := f.limit(); limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	} else if f.Offset > 0 {
		query += " LIMIT -1"
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("sqlite", "list", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageError("sqlite", "scan", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("sqlite", "list", err)
	}
	return runs, nil
}

// Count returns the number of matching runs.
func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	where, args := buildWhereClause(f)
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+where, args...).Scan(&count); err != nil {
		return 0, storageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching runs.
func (s *SQLiteStore) Delete(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	where, args := buildWhereClause(f)
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs"+where, args...)
	if err != nil {
		return 0, storageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("sqlite", "delete", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return storageError("sqlite", "close", err)
	}
	s.logger.Debug("run history closed")
	return nil
}

func buildWhereClause(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Job != "" {
		conds = append(conds, "job = ?")
		args = append(args, f.Job)
	}
	if f.Query != "" {
		conds = append(conds, "query = ?")
		args = append(args, f.Query)
	}
	switch f.Status {
	case StatusSuccess:
		conds = append(conds, "error IS NULL")
	case StatusError:
		conds = append(conds, "error IS NOT NULL")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "started >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "started <= ?")
		args = append(args, f.Until.UnixNano())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run      Run
		started  int64
		duration int64
		errText  sql.NullString
	)
	if err := rows.Scan(&run.ID, &run.Job, &run.Query, &run.Revision,
		&run.Total, &run.Matched, &started, &duration, &errText); err != nil {
		return nil, err
	}
	run.Started = time.Unix(0, started)
	run.Duration = time.Duration(duration)
	run.Error = errText.String
	return &run, nil
}
