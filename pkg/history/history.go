// Package history records the outcome of scheduled query runs and enforces
// how long they are kept.
//
// Two Store backends exist: SQLiteStore persists runs in a SQLite database
// through either registered driver, and MemoryStore keeps them in process
// for tests and short-lived servers. A Pruner deletes runs that are older
// than the retention period or beyond the maximum run count, optionally on
// a cron schedule.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/pursuit/pkg/schedule"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultLimit caps List results when Filter.Limit is zero.
const DefaultLimit = 100

// ErrInvalidFilter is returned for filters a store cannot evaluate.
var ErrInvalidFilter = errors.New("invalid run filter")

// Run is one recorded scheduled run.
type Run struct {
	ID       string        `json:"id"`
	Job      string        `json:"job"`
	Query    string        `json:"query"`
	Revision string        `json:"revision,omitempty"`
	Total    int           `json:"total"`
	Matched  int           `json:"matched"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Status returns StatusError for failed runs and StatusSuccess otherwise.
func (r *Run) Status() string {
	if r.Error != "" {
		return StatusError
	}
	return StatusSuccess
}

// String formats the run as a single report line.
func (r *Run) String() string {
	line := fmt.Sprintf("%s  %-20s %-20s %d/%d  %s",
		r.Started.UTC().Format(time.RFC3339), r.Job, r.Query, r.Matched, r.Total, r.Duration.Round(time.Microsecond))
	if r.Error != "" {
		line += "  error: " + r.Error
	}
	return line
}

// FromResult converts a scheduler result into a Run.
func FromResult(res schedule.Result) *Run {
	run := &Run{
		ID:       res.RunID,
		Job:      res.Job,
		Query:    res.Query,
		Revision: res.Revision,
		Total:    res.Total,
		Matched:  res.Matched,
		Started:  res.Started,
		Duration: res.Duration,
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return run
}

// Filter selects runs. Zero fields match everything.
type Filter struct {
	// Job matches the job name exactly.
	Job string

	// Query matches the catalog query name exactly.
	Query string

	// Status is StatusSuccess, StatusError or empty.
	Status string

	// Since and Until bound the start time, both inclusive.
	Since time.Time
	Until time.Time

	// Limit caps List results. Zero means DefaultLimit and a negative
	// value means no limit. Count and Delete ignore it.
	Limit int

	// Offset skips the newest runs in List.
	Offset int
}

// Validate reports filters no store can evaluate.
func (f Filter) Validate() error {
	switch f.Status {
	case "", StatusSuccess, StatusError:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must be non-negative", ErrInvalidFilter)
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return fmt.Errorf("%w: until is before since", ErrInvalidFilter)
	}
	return nil
}

func (f Filter) limit() int {
	if f.Limit == 0 {
		return DefaultLimit
	}
	return f.Limit
}

func (f Filter) matches(r *Run) bool {
	if f.Job != "" && r.Job != f.Job {
		return false
	}
	if f.Query != "" && r.Query != f.Query {
		return false
	}
	if f.Status != "" && r.Status() != f.Status {
		return false
	}
	if !f.Since.IsZero() && r.Started.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.Started.After(f.Until) {
		return false
	}
	return true
}

// Store persists runs. Implementations are safe for concurrent use.
type Store interface {
	// Record stores a run. Runs with an existing ID are rejected.
	Record(ctx context.Context, run *Run) error

	// List returns matching runs, newest first.
	List(ctx context.Context, f Filter) ([]*Run, error)

	// Count returns the number of matching runs.
	Count(ctx context.Context, f Filter) (int64, error)

	// Delete removes matching runs and returns how many were removed.
	Delete(ctx context.Context, f Filter) (int64, error)

	// Close releases the store.
	Close() error
}

// StorageError reports a failed backend operation.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history %s %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(backend, operation string, cause error) error {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
