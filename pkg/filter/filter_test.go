package filter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/dictionary"
)

func compile(t *testing.T, desc interface{}) compiler.Predicate {
	t.Helper()
	pred, err := compiler.Compile(desc, compiler.Config{Dictionary: dictionary.Default()})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return pred
}

func numbered(n int) []interface{} {
	records := make([]interface{}, n)
	for i := range records {
		records[i] = map[string]interface{}{"n": i}
	}
	return records
}

func TestSliceAndCount(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"foo": "bar"},
		map[string]interface{}{"foo": "baz"},
		map[string]interface{}{"foo": "bar", "x": 1},
	}
	pred := compile(t, map[string]interface{}{"foo": map[string]interface{}{"equals": "bar"}})

	got := Slice(records, pred)
	want := []interface{}{records[0], records[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}
	if n := Count(records, pred); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestPool_FilterMatchesSlice(t *testing.T) {
	records := numbered(10_000)
	pred := compile(t, map[string]interface{}{"n": map[string]interface{}{"greaterThanOrEqualTo": 2500, "lessThan": 7777}})

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bounded", cfg: Config{Workers: 4, ChunkSize: 100}},
		{name: "unbounded", cfg: Config{ChunkSize: 333}},
		{name: "single chunk", cfg: Config{Workers: 2, ChunkSize: 20_000}},
	}

	want := Slice(records, pred)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(tt.cfg, nil)
			if err != nil {
				t.Fatalf("NewPool() error = %v", err)
			}
			defer pool.Close()

			got, err := pool.Filter(context.Background(), records, pred)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if len(got) != 7777-2500 {
				t.Errorf("len(Filter()) = %d, want %d", len(got), 7777-2500)
			}
			if !reflect.DeepEqual(got, want) {
				t.Error("Filter() result differs from Slice()")
			}
		})
	}
}

func TestPool_PredicatePanic(t *testing.T) {
	pool, err := NewPool(Config{Workers: 2, ChunkSize: 10}, nil)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	_, err = pool.Filter(context.Background(), numbered(100), func(r interface{}) bool {
		if r.(map[string]interface{})["n"] == 42 {
			panic("boom")
		}
		return true
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Filter() error = %v, want panic error", err)
	}
}

func TestPool_Errors(t *testing.T) {
	pool, err := NewPool(Config{Workers: 1}, nil)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Close()

	if _, err := pool.Filter(context.Background(), numbered(3), nil); !errors.Is(err, ErrNilPredicate) {
		t.Errorf("Filter(nil) error = %v, want ErrNilPredicate", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Filter(ctx, numbered(3), func(interface{}) bool { return true }); !errors.Is(err, context.Canceled) {
		t.Errorf("Filter(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestParallel(t *testing.T) {
	records := numbered(5000)
	pred := compile(t, map[string]interface{}{"n": map[string]interface{}{"lessThan": 10}})

	got, err := Parallel(context.Background(), records, pred, 3)
	if err != nil {
		t.Fatalf("Parallel() error = %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len(Parallel()) = %d, want 10", len(got))
	}
}
