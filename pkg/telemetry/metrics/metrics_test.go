package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{Namespace: "test"}
}

func TestCollector_RecordCompile(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCompile("cost", time.Millisecond, nil)
	collector.RecordCompile("cost", time.Millisecond, nil)
	collector.RecordCompile("declaration", time.Millisecond, &compiler.CompileError{Kind: compiler.UnknownComparator})
	collector.RecordCompile("cost", time.Millisecond, errors.New("plain"))

	tests := []struct {
		labels []string
		want   float64
	}{
		{labels: []string{"cost", "success"}, want: 2},
		{labels: []string{"declaration", "error"}, want: 1},
		{labels: []string{"cost", "error"}, want: 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(collector.compile.compilationsTotal.WithLabelValues(tt.labels...))
		if got != tt.want {
			t.Errorf("compilations_total%v = %v, want %v", tt.labels, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(collector.compile.errorsTotal.WithLabelValues(string(compiler.UnknownComparator))); got != 1 {
		t.Errorf("compile_errors_total{kind=unknown_comparator} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.compile.errorsTotal.WithLabelValues("other")); got != 1 {
		t.Errorf("compile_errors_total{kind=other} = %v, want 1", got)
	}
}

func TestCollector_RecordFilter(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordFilter("parallel", 1000, 42, 10*time.Millisecond)
	collector.RecordFilter("parallel", 500, 8, 5*time.Millisecond)

	if got := testutil.ToFloat64(collector.filter.evaluatedTotal.WithLabelValues("parallel")); got != 1500 {
		t.Errorf("records_evaluated_total = %v, want 1500", got)
	}
	if got := testutil.ToFloat64(collector.filter.matchedTotal.WithLabelValues("parallel")); got != 50 {
		t.Errorf("records_matched_total = %v, want 50", got)
	}
}

func TestCollector_CatalogAndSchedule(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCatalogReload(3, nil)
	collector.RecordCatalogReload(3, errors.New("bad file"))

	if got := testutil.ToFloat64(collector.catalog.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("reloads_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.catalog.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("reloads_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.catalog.queries); got != 3 {
		t.Errorf("catalog_queries = %v, want 3", got)
	}

	collector.RecordScheduledRun("nightly", 7, time.Second, nil)
	collector.RecordScheduledRun("nightly", 0, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(collector.schedule.matchedTotal.WithLabelValues("nightly")); got != 7 {
		t.Errorf("schedule_records_matched_total = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.schedule.runsTotal.WithLabelValues("nightly", "error")); got != 1 {
		t.Errorf("schedule_runs_total{error} = %v, want 1", got)
	}
}

func TestCollector_Cache(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCacheHit("queries")
	collector.RecordCacheHit("queries")
	collector.RecordCacheMiss("queries")
	collector.RecordCacheEviction("queries")
	collector.UpdateCacheSize("queries", 12)

	if got := testutil.ToFloat64(collector.cache.hitsTotal.WithLabelValues("queries")); got != 2 {
		t.Errorf("cache_hits_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.cache.missesTotal.WithLabelValues("queries")); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.cache.evictionsTotal.WithLabelValues("queries")); got != 1 {
		t.Errorf("cache_evictions_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.cache.entries.WithLabelValues("queries")); got != 12 {
		t.Errorf("cache_entries = %v, want 12", got)
	}
}

func TestCollector_RecordRejection(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRejection("unauthorized")
	collector.RecordRejection("rate_limited")
	collector.RecordRejection("rate_limited")

	if got := testutil.ToFloat64(collector.request.rejectionsTotal.WithLabelValues("rate_limited")); got != 2 {
		t.Errorf("rejections_total{rate_limited} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.request.rejectionsTotal.WithLabelValues("unauthorized")); got != 1 {
		t.Errorf("rejections_total{unauthorized} = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	disabled := false
	collector := NewCollector(&config.MetricsConfig{Enabled: &disabled}, prometheus.NewRegistry())

	collector.RecordFilter("sequential", 10, 5, time.Millisecond)
	collector.RecordRequest("/v1/filter", 200, time.Millisecond)

	if got := testutil.CollectAndCount(collector.filter.evaluatedTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var collector *Collector
	collector.RecordCompile("cost", time.Millisecond, nil)
	collector.RecordCacheHit("queries")
	collector.RecordRequest("/", 200, time.Millisecond)
	collector.RecordRejection("unauthorized")
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordRequest("/v1/filter", 200, 3*time.Millisecond)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	want := fmt.Sprintf(`test_http_requests_total{route=%q,status="200"} 1`, "/v1/filter")
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %s:\n%s", want, body)
	}
}

func TestNewCollector_DefaultNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(&config.MetricsConfig{}, registry)
	collector.RecordCacheMiss("queries")

	expected := `
# HELP pursuit_cache_misses_total Total number of cache misses
# TYPE pursuit_cache_misses_total counter
pursuit_cache_misses_total{cache="queries"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "pursuit_cache_misses_total"); err != nil {
		t.Error(err)
	}
}
