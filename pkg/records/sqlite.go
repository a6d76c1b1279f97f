package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"
)

const (
	// DriverSQLite is the pure Go driver (modernc.org/sqlite).
	DriverSQLite = "sqlite"
	// DriverSQLite3 is the cgo driver (github.com/mattn/go-sqlite3).
	DriverSQLite3 = "sqlite3"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteConfig configures a SQLite record source.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is DriverSQLite or DriverSQLite3.
	// Default: DriverSQLite
	Driver string

	// Table is read in full when Query is empty.
	Table string

	// Query is an arbitrary read query.
	Query string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteSource reads rows of a SQLite table or query as records.
type SQLiteSource struct {
	cfg   SQLiteConfig
	query string
}

// NewSQLiteSource validates cfg and creates a source. The database is opened
// on every Load.
func NewSQLiteSource(cfg SQLiteConfig) (*SQLiteSource, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite source requires a database path")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverSQLite3 {
		return nil, fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	query := cfg.Query
	if query == "" {
		if !tableName.MatchString(cfg.Table) {
			return nil, fmt.Errorf("sqlite source requires a query or a valid table name, got %q", cfg.Table)
		}
		query = "SELECT * FROM " + cfg.Table
	}

	return &SQLiteSource{cfg: cfg, query: query}, nil
}

// Name returns the database path and table or query.
func (s *SQLiteSource) Name() string {
	if s.cfg.Query != "" {
		return s.cfg.Path + ":query"
	}
	return s.cfg.Path + ":" + s.cfg.Table
}

// Load runs the query and returns one record per row.
func (s *SQLiteSource) Load(ctx context.Context) ([]interface{}, error) {
	db, err := OpenDB(s.cfg.Driver, s.cfg.Path, s.cfg.BusyTimeout)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// OpenDB opens a SQLite database with the given driver, using the DSN
// parameters that driver understands for the busy timeout.
func OpenDB(driver, path string, busyTimeout time.Duration) (*sql.DB, error) {
	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
	case DriverSQLite3:
		dsn = fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyTimeout.Milliseconds())
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func scanRows(rows *sql.Rows) ([]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []interface{}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			record[col] = normalize(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

// normalize turns driver values into record values. TEXT may arrive as
// []byte depending on the driver.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}
