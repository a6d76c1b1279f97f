package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks query catalog loads.
type CatalogMetrics struct {
	reloadsTotal *prometheus.CounterVec
	queries      prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// NewCatalogMetrics creates and registers catalog metrics.
func NewCatalogMetrics(namespace string, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "reloads_total",
				Help:      "Total number of catalog load attempts",
			},
			[]string{"result"},
		),

		queries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "queries",
				Help:      "Number of queries in the current catalog revision",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful catalog load",
			},
		),
	}

	registry.MustRegister(cm.reloadsTotal, cm.queries, cm.lastSuccess)
	return cm
}

// Record records a load attempt.
func (cm *CatalogMetrics) Record(queries int, err error) {
	cm.reloadsTotal.WithLabelValues(resultLabel(err)).Inc()
	cm.queries.Set(float64(queries))
	if err == nil {
		cm.lastSuccess.Set(float64(time.Now().Unix()))
	}
}

// ScheduleMetrics tracks scheduled job runs.
type ScheduleMetrics struct {
	runsTotal    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	matchedTotal *prometheus.CounterVec
}

// NewScheduleMetrics creates and registers schedule metrics.
func NewScheduleMetrics(namespace string, registry *prometheus.Registry) *ScheduleMetrics {
	sm := &ScheduleMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "runs_total",
				Help:      "Total number of scheduled job runs",
			},
			[]string{"job", "result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "run_duration_seconds",
				Help:      "Duration of scheduled job runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),

		matchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "records_matched_total",
				Help:      "Total number of records matched by scheduled runs",
			},
			[]string{"job"},
		),
	}

	registry.MustRegister(sm.runsTotal, sm.duration, sm.matchedTotal)
	return sm
}

// Record records one job run.
func (sm *ScheduleMetrics) Record(job string, matched int, duration time.Duration, err error) {
	sm.runsTotal.WithLabelValues(job, resultLabel(err)).Inc()
	sm.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err == nil {
		sm.matchedTotal.WithLabelValues(job).Add(float64(matched))
	}
}
