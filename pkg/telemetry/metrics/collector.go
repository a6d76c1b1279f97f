package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/pursuit/pkg/config"
)

// Collector is the entry point for every Prometheus metric in Pursuit. A nil
// or disabled collector ignores every call, so components can record
// unconditionally.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	compile  *CompileMetrics
	filter   *FilterMetrics
	catalog  *CatalogMetrics
	schedule *ScheduleMetrics
	cache    *CacheMetrics
	request  *RequestMetrics
}

// NewCollector creates a metrics collector registering on registry. If
// registry is nil a new registry is created; the global default registry is
// never used.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		enabled:  cfg.IsEnabled(),
		registry: registry,
		compile:  NewCompileMetrics(namespace, registry),
		filter:   NewFilterMetrics(namespace, registry),
		catalog:  NewCatalogMetrics(namespace, registry),
		schedule: NewScheduleMetrics(namespace, registry),
		cache:    NewCacheMetrics(namespace, registry),
		request:  NewRequestMetrics(namespace, registry),
	}
}

func (c *Collector) active() bool {
	return c != nil && c.enabled
}

// RecordCompile records one descriptor compilation.
//
// Parameters:
//   - strategy: optimizer strategy ("cost" or "declaration")
//   - duration: compile duration
//   - err: the compile error, or nil
func (c *Collector) RecordCompile(strategy string, duration time.Duration, err error) {
	if !c.active() {
		return
	}
	c.compile.Record(strategy, duration, err)
}

// RecordFilter records one pass of a predicate over a record collection.
//
// Parameters:
//   - mode: "sequential" or "parallel"
//   - total: records evaluated
//   - matched: records that satisfied the predicate
func (c *Collector) RecordFilter(mode string, total, matched int, duration time.Duration) {
	if !c.active() {
		return
	}
	c.filter.Record(mode, total, matched, duration)
}

// RecordCatalogReload records a catalog load attempt. queries is the number
// of queries in the current snapshot after the attempt.
func (c *Collector) RecordCatalogReload(queries int, err error) {
	if !c.active() {
		return
	}
	c.catalog.Record(queries, err)
}

// RecordScheduledRun records one scheduled job run.
func (c *Collector) RecordScheduledRun(job string, matched int, duration time.Duration, err error) {
	if !c.active() {
		return
	}
	c.schedule.Record(job, matched, duration, err)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.active() {
		return
	}
	c.cache.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.active() {
		return
	}
	c.cache.RecordMiss(cacheName)
}

// RecordCacheEviction records a cache eviction.
func (c *Collector) RecordCacheEviction(cacheName string) {
	if !c.active() {
		return
	}
	c.cache.RecordEviction(cacheName)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.active() {
		return
	}
	c.cache.UpdateSize(cacheName, size)
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - route: the route pattern, not the raw path
//   - status: HTTP status code
func (c *Collector) RecordRequest(route string, status int, duration time.Duration) {
	if !c.active() {
		return
	}
	c.request.Record(route, status, duration)
}

// RecordRejection records a request refused by authentication ("unauthorized")
// or rate limiting ("rate_limited").
func (c *Collector) RecordRejection(reason string) {
	if !c.active() {
		return
	}
	c.request.RecordRejection(reason)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
