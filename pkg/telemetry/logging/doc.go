// Package logging builds the slog loggers used across Pursuit.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "records filtered", "matched", n)
//
// Records logged with a context carry its request_id, query, job and run_id
// fields, and the trace_id and span_id of an active OpenTelemetry span.
//
// # Redaction
//
// With Redact set, string attributes and error messages are scanned for
// email addresses, social security numbers, card numbers, phone numbers and
// bearer tokens, and attributes with credential-like keys are masked.
package logging
