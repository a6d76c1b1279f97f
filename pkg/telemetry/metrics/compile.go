package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/pursuit/pkg/compiler"
)

// CompileMetrics tracks descriptor compilation.
//
// Metrics:
//   - pursuit_compilations_total: compilations by strategy and result
//   - pursuit_compile_duration_seconds: compile latency
//   - pursuit_compile_errors_total: failed compilations by error kind
type CompileMetrics struct {
	compilationsTotal *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

// NewCompileMetrics creates and registers compile metrics.
func NewCompileMetrics(namespace string, registry *prometheus.Registry) *CompileMetrics {
	cm := &CompileMetrics{
		compilationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Total number of query descriptor compilations",
			},
			[]string{"strategy", "result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Duration of query descriptor compilation in seconds",
				// 10µs to ~80ms
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"strategy"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compile_errors_total",
				Help:      "Total number of failed compilations by error kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(cm.compilationsTotal, cm.duration, cm.errorsTotal)
	return cm
}

// Record records one compilation.
func (cm *CompileMetrics) Record(strategy string, duration time.Duration, err error) {
	cm.compilationsTotal.WithLabelValues(strategy, resultLabel(err)).Inc()
	cm.duration.WithLabelValues(strategy).Observe(duration.Seconds())

	if err != nil {
		cm.errorsTotal.WithLabelValues(errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return string(ce.Kind)
	}
	return "other"
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
