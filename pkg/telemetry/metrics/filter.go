package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FilterMetrics tracks predicate evaluation over record collections.
//
// Metrics:
//   - pursuit_records_evaluated_total
//   - pursuit_records_matched_total
//   - pursuit_filter_duration_seconds
type FilterMetrics struct {
	evaluatedTotal *prometheus.CounterVec
	matchedTotal   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

// NewFilterMetrics creates and registers filter metrics.
func NewFilterMetrics(namespace string, registry *prometheus.Registry) *FilterMetrics {
	fm := &FilterMetrics{
		evaluatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_evaluated_total",
				Help:      "Total number of records evaluated against a predicate",
			},
			[]string{"mode"},
		),

		matchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_matched_total",
				Help:      "Total number of records that satisfied a predicate",
			},
			[]string{"mode"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "filter_duration_seconds",
				Help:      "Duration of filtering a record collection in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(fm.evaluatedTotal, fm.matchedTotal, fm.duration)
	return fm
}

// Record records one filtering pass.
func (fm *FilterMetrics) Record(mode string, total, matched int, duration time.Duration) {
	fm.evaluatedTotal.WithLabelValues(mode).Add(float64(total))
	fm.matchedTotal.WithLabelValues(mode).Add(float64(matched))
	fm.duration.WithLabelValues(mode).Observe(duration.Seconds())
}
