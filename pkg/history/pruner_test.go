package history

import (
	"context"
	"testing"
	"time"
)

func TestPruner_Prune(t *testing.T) {
	// seed spans base .. base+4h; now is base+5h.
	tests := []struct {
		name        string
		cfg         PrunerConfig
		wantDeleted int64
		wantLeft    string
	}{
		{name: "nothing configured", cfg: PrunerConfig{}, wantDeleted: 0, wantLeft: "run-4,run-3,run-2,run-1,run-0"},
		{name: "by age", cfg: PrunerConfig{Retention: 3 * time.Hour}, wantDeleted: 2, wantLeft: "run-4,run-3,run-2"},
		{name: "age boundary kept", cfg: PrunerConfig{Retention: 5 * time.Hour}, wantDeleted: 0, wantLeft: "run-4,run-3,run-2,run-1,run-0"},
		{name: "by count", cfg: PrunerConfig{MaxRuns: 2}, wantDeleted: 3, wantLeft: "run-4,run-3"},
		{name: "count within limit", cfg: PrunerConfig{MaxRuns: 5}, wantDeleted: 0, wantLeft: "run-4,run-3,run-2,run-1,run-0"},
		{name: "age then count", cfg: PrunerConfig{Retention: 4 * time.Hour, MaxRuns: 3}, wantDeleted: 2, wantLeft: "run-4,run-3,run-2"},
	}

	for backend, open := range stores(t) {
		t.Run(backend, func(t *testing.T) {
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					store := open(t)
					seed(t, store)

					p, err := NewPruner(store, tt.cfg, discardLogger())
					if err != nil {
						t.Fatalf("NewPruner() failed: %v", err)
					}
					p.now = func() time.Time { return base.Add(5 * time.Hour) }

					deleted, err := p.Prune(context.Background())
					if err != nil {
						t.Fatalf("Prune() failed: %v", err)
					}
					if deleted != tt.wantDeleted {
						t.Errorf("Prune() deleted %d, want %d", deleted, tt.wantDeleted)
					}

					runs, err := store.List(context.Background(), Filter{})
					if err != nil {
						t.Fatalf("List() failed: %v", err)
					}
					if got := ids(runs); got != tt.wantLeft {
						t.Errorf("remaining = %q, want %q", got, tt.wantLeft)
					}
				})
			}
		})
	}
}

func TestNewPruner_Errors(t *testing.T) {
	store := NewMemoryStore()
	tests := []struct {
		name  string
		store Store
		cfg   PrunerConfig
	}{
		{name: "nil store", cfg: PrunerConfig{}},
		{name: "negative retention", store: store, cfg: PrunerConfig{Retention: -time.Hour}},
		{name: "negative max runs", store: store, cfg: PrunerConfig{MaxRuns: -1}},
		{name: "bad schedule", store: store, cfg: PrunerConfig{Schedule: "every day"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPruner(tt.store, tt.cfg, nil); err == nil {
				t.Error("NewPruner() succeeded, want error")
			}
		})
	}
}

func TestPruner_StartStop(t *testing.T) {
	p, err := NewPruner(NewMemoryStore(), PrunerConfig{Retention: time.Hour, Schedule: "0 3 * * *"}, discardLogger())
	if err != nil {
		t.Fatalf("NewPruner() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !p.Running() {
		t.Error("Running() = false after Start()")
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start() succeeded")
	}
	if _, ok := p.NextRun(); !ok {
		t.Error("NextRun() reported no schedule")
	}

	p.Stop()
	p.Stop()
	if p.Running() {
		t.Error("Running() = true after Stop()")
	}
	if _, ok := p.NextRun(); ok {
		t.Error("NextRun() reported a schedule after Stop()")
	}
}

func TestPruner_StartWithoutSchedule(t *testing.T) {
	p, err := NewPruner(NewMemoryStore(), PrunerConfig{MaxRuns: 10}, discardLogger())
	if err != nil {
		t.Fatalf("NewPruner() failed: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if p.Running() {
		t.Error("Running() = true without a schedule")
	}
}

func TestValidateSchedule(t *testing.T) {
	for spec, wantErr := range map[string]bool{
		"":           false,
		"0 3 * * *":  false,
		"@every 1h":  false,
		"0 3 * *":    true,
		"not a cron": true,
	} {
		if err := ValidateSchedule(spec); (err != nil) != wantErr {
			t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", spec, err, wantErr)
		}
	}
}
