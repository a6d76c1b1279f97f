// Package filter applies compiled predicates to collections of records.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"mercator-hq/pursuit/pkg/compiler"
)

const (
	// DefaultChunkSize is the number of records evaluated per pool task.
	DefaultChunkSize = 1024

	// releaseTimeout bounds how long Close waits for running tasks.
	releaseTimeout = 3 * time.Second
)

// ErrNilPredicate is returned when filtering without a predicate.
var ErrNilPredicate = errors.New("predicate cannot be nil")

// Slice returns the records matching pred, in their original order.
func Slice(records []interface{}, pred compiler.Predicate) []interface{} {
	var out []interface{}
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many records match pred.
func Count(records []interface{}, pred compiler.Predicate) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// Config configures a Pool.
type Config struct {
	// Workers bounds concurrent evaluation. Zero or less means one worker per
	// chunk, unbounded.
	Workers int

	// ChunkSize is the number of records evaluated per task. Defaults to
	// DefaultChunkSize.
	ChunkSize int
}

// Pool filters large collections on a bounded worker pool. Compiled
// predicates are safe for concurrent use, so chunks of one collection are
// evaluated in parallel.
type Pool struct {
	pool      *ants.Pool
	chunkSize int
	logger    *slog.Logger
}

// NewPool creates a worker pool.
func NewPool(cfg Config, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "filter")

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	size := cfg.Workers
	if size <= 0 {
		size = -1
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		logger.Error("filter task panic", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Pool{pool: pool, chunkSize: chunkSize, logger: logger}, nil
}

// Filter returns the records matching pred in their original order. A
// predicate that panics fails the whole call. Cancelling ctx stops chunks
// that have not started yet.
func (p *Pool) Filter(ctx context.Context, records []interface{}, pred compiler.Predicate) ([]interface{}, error) {
	if pred == nil {
		return nil, ErrNilPredicate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) <= p.chunkSize {
		return Slice(records, pred), nil
	}

	mask := make([]bool, len(records))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	setErr := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	for start := 0; start < len(records); start += p.chunkSize {
		end := min(start+p.chunkSize, len(records))

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					setErr(fmt.Errorf("predicate panicked on record %d..%d: %v", start, end-1, r))
				}
			}()

			if err := ctx.Err(); err != nil {
				setErr(err)
				return
			}
			for i := start; i < end; i++ {
				mask[i] = pred(records[i])
			}
		})
		if err != nil {
			wg.Done()
			setErr(fmt.Errorf("failed to submit filter task: %w", err))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]interface{}, 0, len(records)/4)
	for i, ok := range mask {
		if ok {
			out = append(out, records[i])
		}
	}

	p.logger.Debug("records filtered",
		"total", len(records),
		"matched", len(out),
		"chunks", (len(records)+p.chunkSize-1)/p.chunkSize,
	)

	return out, nil
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Close releases the pool, waiting briefly for running tasks.
func (p *Pool) Close() error {
	return p.pool.ReleaseTimeout(releaseTimeout)
}

// Parallel filters records on a temporary pool of the given size.
func Parallel(ctx context.Context, records []interface{}, pred compiler.Predicate, workers int) ([]interface{}, error) {
	p, err := NewPool(Config{Workers: workers}, nil)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.Filter(ctx, records, pred)
}
