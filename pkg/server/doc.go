// Package server provides the Pursuit HTTP filter API.
//
// # Endpoints
//
//   - POST /v1/filter: compile {"query": ...} and filter {"records": [...]}
//   - GET /v1/queries: list the catalog's named queries
//   - GET /v1/queries/{name}: one named query with its descriptor and plan
//   - POST /v1/queries/{name}/filter: filter {"records": [...]} with a named query
//   - GET /v1/runs: scheduled run history, when history is enabled
//   - GET /health, GET /ready, GET /version: probes and build information
//   - GET /metrics: Prometheus metrics, when enabled
//
// A filter response carries the matched records in input order:
//
//	{"strategy": "cost", "cached": false, "total": 3, "count": 2, "matched": [...]}
//
// Ad-hoc descriptors are compiled once and kept in an LRU cache keyed by
// their compacted JSON text. Key order is part of the key because it is the
// evaluation order when the optimizer is off.
//
// # Errors
//
// Failures use one JSON shape. Compile errors are 400 responses naming the
// offending path and key:
//
//	{"error": {"type": "invalid_request", "kind": "unknown_comparator",
//	  "path": "$.age.greaterThen", "key": "greaterThen",
//	  "suggestion": "did you mean 'greaterThan'?", "message": "..."}}
//
// # Middleware
//
// Every request gets an X-Request-ID (the client's, or a new UUID), a server
// span joined to any incoming W3C trace context, a request log line and
// request metrics. Handler panics become 500 responses.
//
// When configured, /v1/ routes also require an API key (401 otherwise) and
// are rate limited per key or remote host (429 with Retry-After). Probes,
// /version and /metrics stay open.
package server
