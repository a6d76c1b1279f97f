// Package tracing provides OpenTelemetry tracing for Pursuit.
//
// # Overview
//
// Spans cover query compilation, record loading, filtering passes and catalog
// loads. Spans are exported to an OTLP gRPC collector.
// When tracing is disabled, a no-op tracer is used and span creation costs
// almost nothing.
//
// # Trace Context Propagation
//
// The HTTP API accepts W3C Trace Context headers, so a filter request can
// join a caller's trace:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
//   - always: sample all traces
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID
//
// All samplers are parent-based: a span with a sampled parent is sampled.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanFilter)
//	matched, err := pool.Filter(ctx, recs, q.Predicate())
//	span.SetAttributes(tracing.FilterAttributes("parallel", len(recs), len(matched))...)
//	tracing.End(span, err)
package tracing
