// Package metrics provides Prometheus metrics collection for Pursuit.
//
// # Metrics Categories
//
//   - Compile Metrics: compilations by optimizer strategy, latency, error kinds
//   - Filter Metrics: records evaluated and matched, filtering latency
//   - Catalog Metrics: reload attempts, query count, last successful load
//   - Schedule Metrics: job runs, run latency, matched records
//   - Cache Metrics: compiled query cache hits, misses, size and evictions
//   - Request Metrics: HTTP request count and latency by route
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	start := time.Now()
//	q, err := c.Compile(desc)
//	collector.RecordCompile(c.Strategy(), time.Since(start), err)
//
//	mux.Handle("/metrics", collector.Handler())
//
// Metrics are registered on an explicit registry rather than the Prometheus
// default registry, so several collectors can coexist in tests.
package metrics
