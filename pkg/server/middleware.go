package server

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/pursuit/pkg/access"
	"mercator-hq/pursuit/pkg/telemetry/logging"
	"mercator-hq/pursuit/pkg/telemetry/metrics"
	"mercator-hq/pursuit/pkg/telemetry/tracing"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// apiPrefix marks the routes guarded by authentication and rate limits.
// Probes, /version and /metrics stay open.
const apiPrefix = "/v1/"

type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one is outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// requestID reuses the client's X-Request-ID or generates a UUID, and puts
// it in the request context and the response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// recovery turns a handler panic into a 500 response.
func recovery(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.ErrorContext(r.Context(), "panic in handler",
						"panic", v,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					_, resp := toErrorResponse(nil)
					resp.Error.RequestID = logging.GetRequestID(r.Context())
					writeJSON(w, http.StatusInternalServerError, resp)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// instrument logs each request, records request metrics and wraps the
// request in a server span joined to any incoming trace context.
func instrument(logger *slog.Logger, collector *metrics.Collector, tracer *tracing.Tracer) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := tracing.Extract(r.Context(), r.Header)
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)

			span.SetName("HTTP " + route)
			span.SetAttributes(
				attribute.String(tracing.AttrRequestID, logging.GetRequestID(ctx)),
				attribute.Int("http.response.status_code", rw.status),
			)
			var spanErr error
			if rw.status >= http.StatusInternalServerError {
				spanErr = fmt.Errorf("status %d", rw.status)
			}
			tracing.End(span, spanErr)

			collector.RecordRequest(route, rw.status, elapsed)

			level := slog.LevelInfo
			switch {
			case rw.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rw.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "request completed",
				"method", r.Method,
				"route", route,
				"status", rw.status,
				"duration_ms", elapsed.Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// authenticate rejects API requests without a valid key and puts the key in
// the request context.
func authenticate(keys *access.Keyring, logger *slog.Logger, collector *metrics.Collector) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, apiPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			key, err := keys.Authenticate(r)
			if err != nil {
				collector.RecordRejection("unauthorized")
				w.Header().Set("WWW-Authenticate", `Bearer realm="pursuit"`)
				writeError(w, r, logger, &requestError{
					status:  http.StatusUnauthorized,
					kind:    ErrorTypeUnauthorized,
					message: "authentication failed",
					err:     err,
				})
				return
			}

			logger.DebugContext(r.Context(), "request authenticated", "key_id", key.ID)
			next.ServeHTTP(w, r.WithContext(access.WithKey(r.Context(), key)))
		})
	}
}

// rateLimit rejects API requests from clients that exhausted their bucket.
// It runs after authenticate so clients are keyed by API key when possible.
func rateLimit(limiter *access.Limiter, logger *slog.Logger, collector *metrics.Collector) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, apiPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			client := clientID(r)
			if ok, wait := limiter.Allow(client); !ok {
				collector.RecordRejection("rate_limited")
				retry := int(math.Max(1, math.Ceil(wait.Seconds())))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, r, logger, &requestError{
					status:  http.StatusTooManyRequests,
					kind:    ErrorTypeRateLimited,
					message: fmt.Sprintf("rate limit exceeded for %s, retry in %ds", client, retry),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientID(r *http.Request) string {
	if key, ok := access.KeyFromContext(r.Context()); ok {
		return "key:" + key.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
