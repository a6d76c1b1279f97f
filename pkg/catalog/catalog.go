// Package catalog keeps a set of named, compiled queries loaded from query
// files, and reloads them when the files change.
//
// A reload either replaces the whole set or leaves the previous set in
// place: a single file that fails to parse or compile keeps every query at
// the last good revision.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/descriptor"
)

// DefaultDebounce is the quiet period before a file change triggers a
// reload.
const DefaultDebounce = 200 * time.Millisecond

var (
	// ErrNoPath is returned when a catalog has no query path.
	ErrNoPath = errors.New("catalog path cannot be empty")

	// ErrNotFound is returned for unknown query names.
	ErrNotFound = errors.New("query not found")
)

// QueryError reports a query that failed to load.
type QueryError struct {
	Source string
	Query  string
	Err    error
}

// Error returns the error message.
func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s: query %q: %v", e.Source, e.Query, e.Err)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Entry is a compiled named query.
type Entry struct {
	Name        string
	Description string
	Source      string
	Descriptor  interface{}
	Query       *compiler.Query
}

// Snapshot is an immutable revision of the catalog.
type Snapshot struct {
	Revision string
	LoadedAt time.Time
	entries  map[string]*Entry
	names    []string
}

// Get returns the entry named name.
func (s *Snapshot) Get(name string) (*Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Entries returns every entry sorted by name.
func (s *Snapshot) Entries() []*Entry {
	out := make([]*Entry, len(s.names))
	for i, name := range s.names {
		out[i] = s.entries[name]
	}
	return out
}

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.names) }

// Config configures a Catalog.
type Config struct {
	// Path is a query file or a directory of query files.
	Path string

	// Debounce is the quiet period before a change triggers a reload.
	// Default: DefaultDebounce
	Debounce time.Duration

	// OnReload, if set, is called after every load attempt.
	OnReload func(snapshot *Snapshot, err error)
}

// Catalog holds the current snapshot of compiled queries. Reads are lock
// free; loads are serialized.
type Catalog struct {
	cfg      Config
	compiler *compiler.Compiler
	logger   *slog.Logger

	current atomic.Pointer[Snapshot]

	loadMu  sync.Mutex
	lastErr error
}

// New creates an empty catalog. Call Load to populate it.
func New(cfg Config, c *compiler.Compiler, logger *slog.Logger) (*Catalog, error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}
	if c == nil {
		return nil, errors.New("catalog requires a compiler")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	cat := &Catalog{
		cfg:      cfg,
		compiler: c,
		logger:   logger.With("component", "catalog"),
	}
	cat.current.Store(&Snapshot{entries: map[string]*Entry{}})
	return cat, nil
}

// Snapshot returns the current revision.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Get returns the current entry named name.
func (c *Catalog) Get(name string) (*Entry, error) {
	e, ok := c.Snapshot().Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, nil
}

// LastError returns the error of the last load attempt, or nil.
func (c *Catalog) LastError() error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.lastErr
}

// Load reads and compiles every query. On failure the previous snapshot is
// kept and the error returned.
func (c *Catalog) Load() error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	start := time.Now()
	snapshot, err := c.build()
	c.lastErr = err

	if err != nil {
		c.logger.Error("failed to load queries, keeping previous revision",
			"path", c.cfg.Path,
			"revision", c.Snapshot().Revision,
			"error", err,
		)
		c.notify(nil, err)
		return err
	}

	c.current.Store(snapshot)
	c.logger.Info("queries loaded",
		"path", c.cfg.Path,
		"count", snapshot.Len(),
		"revision", snapshot.Revision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.notify(snapshot, nil)
	return nil
}

func (c *Catalog) notify(s *Snapshot, err error) {
	if c.cfg.OnReload != nil {
		c.cfg.OnReload(s, err)
	}
}

func (c *Catalog) build() (*Snapshot, error) {
	files, err := c.readFiles()
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Revision: uuid.NewString(),
		LoadedAt: time.Now(),
		entries:  make(map[string]*Entry),
	}

	for _, f := range files {
		for _, nq := range f.Queries {
			if prev, dup := snapshot.entries[nq.Name]; dup {
				return nil, &QueryError{
					Source: nq.Source,
					Query:  nq.Name,
					Err:    fmt.Errorf("already defined in %s", prev.Source),
				}
			}

			q, err := c.compiler.Compile(nq.Match)
			if err != nil {
				return nil, &QueryError{Source: nq.Source, Query: nq.Name, Err: err}
			}

			snapshot.entries[nq.Name] = &Entry{
				Name:        nq.Name,
				Description: nq.Description,
				Source:      nq.Source,
				Descriptor:  nq.Match,
				Query:       q,
			}
			snapshot.names = append(snapshot.names, nq.Name)
		}
	}

	sort.Strings(snapshot.names)
	return snapshot, nil
}

func (c *Catalog) readFiles() ([]*descriptor.File, error) {
	info, err := os.Stat(c.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat query path: %w", err)
	}
	if info.IsDir() {
		return descriptor.LoadDir(c.cfg.Path)
	}

	f, err := descriptor.LoadFile(c.cfg.Path)
	if err != nil {
		return nil, err
	}
	return []*descriptor.File{f}, nil
}

// Watch reloads the catalog whenever query files change. It blocks until ctx
// is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := NewFileWatcher(c.cfg.Path, c.cfg.Debounce, c.logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Watch(ctx, func() {
			// Failures are logged by Load and reported through OnReload.
			_ = c.Load()
		})
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	if stopErr := watcher.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
