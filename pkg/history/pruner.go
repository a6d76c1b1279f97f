package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PrunerConfig configures a Pruner.
type PrunerConfig struct {
	// Retention is how long runs are kept. Zero keeps runs forever.
	Retention time.Duration

	// MaxRuns caps the number of stored runs. Zero means unlimited.
	MaxRuns int64

	// Schedule is a cron expression for automatic pruning, such as
	// "0 3 * * *". Empty disables automatic pruning.
	Schedule string
}

// ValidateSchedule reports whether spec is a usable prune schedule.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Pruner deletes runs beyond the retention period or the run cap.
type Pruner struct {
	store  Store
	cfg    PrunerConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
}

// NewPruner validates cfg and creates a Pruner for store.
func NewPruner(store Store, cfg PrunerConfig, logger *slog.Logger) (*Pruner, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if cfg.Retention < 0 {
		return nil, errors.New("retention must be non-negative")
	}
	if cfg.MaxRuns < 0 {
		return nil, errors.New("max runs must be non-negative")
	}
	if err := ValidateSchedule(cfg.Schedule); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "history.pruner"),
		now:    time.Now,
	}, nil
}

// Prune deletes runs older than the retention period, then the oldest runs
// beyond MaxRuns. It returns the number of runs deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.cfg.Retention > 0 {
		n, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += n
	}

	if p.cfg.MaxRuns > 0 {
		n, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += n
	}

	if total > 0 {
		p.logger.Info("run history pruned",
			"deleted", total,
			"retention", p.cfg.Retention,
			"max_runs", p.cfg.MaxRuns,
		)
	} else {
		p.logger.Debug("no runs pruned")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.cfg.Retention)
	// Until is inclusive; runs started exactly at the cutoff are still
	// within retention.
	return p.store.Delete(ctx, Filter{Until: cutoff.Add(-time.Nanosecond)})
}

// pruneByCount finds the newest run past the cap and deletes it along with
// everything older.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.Count(ctx, Filter{})
	if err != nil {
		return 0, err
	}
	if count <= p.cfg.MaxRuns {
		return 0, nil
	}

	boundary, err := p.store.List(ctx, Filter{Offset: int(p.cfg.MaxRuns), Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(boundary) == 0 {
		return 0, nil
	}
	return p.store.Delete(ctx, Filter{Until: boundary[0].Started})
}

// Start schedules automatic pruning. It is a no-op without a schedule.
// Pruning stops when ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.Schedule == "" {
		p.logger.Info("prune schedule not configured")
		return nil
	}
	if p.running {
		return errors.New("pruner already running")
	}

	c := cron.New()
	id, err := c.AddFunc(p.cfg.Schedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}
	c.Start()
	p.cron = c
	p.entry = id
	p.running = true

	p.logger.Info("history pruner started",
		"schedule", p.cfg.Schedule,
		"retention", p.cfg.Retention,
		"max_runs", p.cfg.MaxRuns,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop stops automatic pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("history pruner stopped")
}

// Running reports whether automatic pruning is active.
func (p *Pruner) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled prune.
func (p *Pruner) NextRun() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return time.Time{}, false
	}
	return p.cron.Entry(p.entry).Next, true
}
