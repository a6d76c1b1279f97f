// Package telemetry wires the observability components of Pursuit.
//
// # Components
//
//   - logging: slog loggers with context fields and optional redaction
//   - metrics: Prometheus collectors for compiles, filters, reloads and runs
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Logger().Info("catalog loaded", "queries", snap.Len())
//	tel.Metrics().RecordFilter("parallel", len(recs), len(matched), elapsed)
package telemetry
