// Package schedule runs named queries against record sources on cron
// schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"mercator-hq/pursuit/pkg/catalog"
	"mercator-hq/pursuit/pkg/filter"
	"mercator-hq/pursuit/pkg/records"
)

// ErrUnknownJob is returned for job names that are not scheduled.
var ErrUnknownJob = errors.New("unknown job")

// Job runs one catalog query against one record source.
type Job struct {
	// Name identifies the job.
	Name string `yaml:"name"`

	// Schedule is a standard five-field cron expression or a descriptor such
	// as "@every 5m".
	Schedule string `yaml:"schedule"`

	// Query is the catalog query name.
	Query string `yaml:"query"`

	// Source describes the records to filter.
	Source records.Spec `yaml:"source"`

	// Output, if set, receives the matched records. The format follows the
	// file extension.
	Output string `yaml:"output"`
}

// Result describes one job run.
type Result struct {
	RunID    string
	Job      string
	Query    string
	Revision string
	Total    int
	Matched  int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Queries provides the current catalog revision.
type Queries interface {
	Snapshot() *catalog.Snapshot
}

// Config configures a Scheduler.
type Config struct {
	Jobs []Job

	// OnResult, if set, is called after every run.
	OnResult func(Result)
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]Job
	entries  map[string]cron.EntryID
	queries  Queries
	pool     *filter.Pool
	onResult func(Result)
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	last    map[string]Result
}

// New validates the jobs and creates a scheduler. pool may be nil, in which
// case records are filtered on the calling goroutine.
func New(cfg Config, queries Queries, pool *filter.Pool, logger *slog.Logger) (*Scheduler, error) {
	if queries == nil {
		return nil, errors.New("scheduler requires a query catalog")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cron:     cron.New(),
		jobs:     make(map[string]Job, len(cfg.Jobs)),
		entries:  make(map[string]cron.EntryID, len(cfg.Jobs)),
		queries:  queries,
		pool:     pool,
		onResult: cfg.OnResult,
		logger:   logger.With("component", "schedule"),
		last:     make(map[string]Result),
	}

	for _, job := range cfg.Jobs {
		if err := ValidateJob(job); err != nil {
			return nil, err
		}
		if _, dup := s.jobs[job.Name]; dup {
			return nil, fmt.Errorf("job %q is defined more than once", job.Name)
		}
		s.jobs[job.Name] = job
	}

	return s, nil
}

// ValidateJob checks a job definition without scheduling it.
func ValidateJob(job Job) error {
	if job.Name == "" {
		return errors.New("job name cannot be empty")
	}
	if job.Query == "" {
		return fmt.Errorf("job %q: query cannot be empty", job.Name)
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("job %q: invalid cron schedule %q: %w", job.Name, job.Schedule, err)
	}
	if _, err := records.Open(job.Source); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	return nil
}

// Start schedules every job and starts the cron runner. Jobs run with ctx,
// and the scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}
	if len(s.jobs) == 0 {
		s.logger.Info("no jobs configured, skipping scheduler")
		return nil
	}

	for name, job := range s.jobs {
		id, err := s.cron.AddFunc(job.Schedule, func() {
			_, _ = s.RunNow(ctx, name)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %q: %w", name, err)
		}
		s.entries[name] = id
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler is running.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run of a job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// LastResult returns the most recent result of a job.
func (s *Scheduler) LastResult(name string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.last[name]
	return r, ok
}

// RunNow runs a job immediately.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	job, ok := s.jobs[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	result := s.run(ctx, job)

	s.mu.Lock()
	s.last[name] = result
	s.mu.Unlock()

	if result.Err != nil {
		s.logger.Error("scheduled query failed",
			"job", job.Name,
			"run_id", result.RunID,
			"query", job.Query,
			"error", result.Err,
		)
	} else {
		s.logger.Info("scheduled query completed",
			"job", job.Name,
			"run_id", result.RunID,
			"query", job.Query,
			"revision", result.Revision,
			"total", result.Total,
			"matched", result.Matched,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}

	if s.onResult != nil {
		s.onResult(result)
	}
	return result, result.Err
}

func (s *Scheduler) run(ctx context.Context, job Job) (result Result) {
	snapshot := s.queries.Snapshot()
	result = Result{
		RunID:    uuid.NewString(),
		Job:      job.Name,
		Query:    job.Query,
		Revision: snapshot.Revision,
		Started:  time.Now(),
	}
	defer func() { result.Duration = time.Since(result.Started) }()

	entry, ok := snapshot.Get(job.Query)
	if !ok {
		result.Err = fmt.Errorf("%w: %q", catalog.ErrNotFound, job.Query)
		return result
	}

	src, err := records.Open(job.Source)
	if err != nil {
		result.Err = err
		return result
	}
	recs, err := src.Load(ctx)
	if err != nil {
		result.Err = fmt.Errorf("failed to load records from %s: %w", src.Name(), err)
		return result
	}
	result.Total = len(recs)

	pred := entry.Query.Predicate()
	var matched []interface{}
	if s.pool != nil {
		matched, err = s.pool.Filter(ctx, recs, pred)
		if err != nil {
			result.Err = err
			return result
		}
	} else {
		matched = filter.Slice(recs, pred)
	}
	result.Matched = len(matched)

	if job.Output != "" {
		if err := records.WriteFile(job.Output, matched); err != nil {
			result.Err = err
		}
	}
	return result
}
