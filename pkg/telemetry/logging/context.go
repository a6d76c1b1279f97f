package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey contextKey = "request_id"

	// QueryKey is the context key for catalog query names.
	QueryKey contextKey = "query"

	// JobKey is the context key for scheduled job names.
	JobKey contextKey = "job"

	// RunIDKey is the context key for scheduled run IDs.
	RunIDKey contextKey = "run_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithQuery adds a query name to the context.
func WithQuery(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, QueryKey, name)
}

// GetQuery retrieves the query name from the context.
func GetQuery(ctx context.Context) string {
	return stringValue(ctx, QueryKey)
}

// WithJob adds a job name and run ID to the context.
func WithJob(ctx context.Context, job, runID string) context.Context {
	ctx = context.WithValue(ctx, JobKey, job)
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetJob retrieves the job name and run ID from the context.
func GetJob(ctx context.Context) (job, runID string) {
	return stringValue(ctx, JobKey), stringValue(ctx, RunIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// contextAttrs extracts log fields from the context, including the trace
// and span IDs of an active span.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, key := range []contextKey{RequestIDKey, QueryKey, JobKey, RunIDKey} {
		if v := stringValue(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}
