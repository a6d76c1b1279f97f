package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps runs in memory. Runs are lost when the process exits.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Record stores a copy of run.
func (m *MemoryStore) Record(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return storageError("memory", "record", errors.New("run ID is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; ok {
		return storageError("memory", "record", fmt.Errorf("run %s already recorded", run.ID))
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

// List returns copies of matching runs, newest first.
func (m *MemoryStore) List(ctx context.Context, f Filter) ([]*Run, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	matched := m.matching(f)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Started.Equal(matched[j].Started) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Started.After(matched[j].Started)
	})

	if f.Offset >= len(matched) {
		return []*Run{}, nil
	}
	matched = matched[f.Offset:]
	if limit := f.limit(); limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*Run, len(matched))
	for i, r := range matched {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// Count returns the number of matching runs.
func (m *MemoryStore) Count(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return int64(len(m.matching(f))), nil
}

// Delete removes matching runs.
func (m *MemoryStore) Delete(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, r := range m.runs {
		if f.matches(r) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) matching(f Filter) []*Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Run
	for _, r := range m.runs {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}
