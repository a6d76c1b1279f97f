package config

import (
	"time"

	"mercator-hq/pursuit/pkg/access"
	"mercator-hq/pursuit/pkg/records"
	"mercator-hq/pursuit/pkg/schedule"
)

// Config is the root configuration structure for Pursuit.
// It contains the compiler, filtering, query catalog, scheduler, run history,
// HTTP server and telemetry settings.
type Config struct {
	// Compiler contains query compiler settings.
	Compiler CompilerConfig `yaml:"compiler"`

	// Filter contains settings for parallel filtering of record collections.
	Filter FilterConfig `yaml:"filter"`

	// Records is the default record source used when a command is not given
	// one explicitly.
	Records records.Spec `yaml:"records"`

	// Catalog contains the named query catalog settings.
	Catalog CatalogConfig `yaml:"catalog"`

	// Schedules lists cron jobs that run catalog queries against record
	// sources.
	Schedules []schedule.Job `yaml:"schedules"`

	// History contains the scheduled run history settings.
	History HistoryConfig `yaml:"history"`

	// Server contains HTTP filter API settings.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CompilerConfig contains query compiler settings.
type CompilerConfig struct {
	// Optimize reorders conjunction members by estimated cost.
	// A pointer so that an explicit false survives defaulting.
	// Default: true
	Optimize *bool `yaml:"optimize"`

	// NegationKey is the reserved descriptor key holding a negated
	// sub-descriptor. Set to "-" to disable negation.
	// Default: "!not"
	NegationKey string `yaml:"negation_key"`

	// PathSeparator splits field keys into nested path segments.
	// Default: "."
	PathSeparator string `yaml:"path_separator"`
}

// OptimizeEnabled reports whether the optimizer is on.
func (c CompilerConfig) OptimizeEnabled() bool {
	return c.Optimize == nil || *c.Optimize
}

// EffectiveNegationKey returns the negation key, or "" when negation is
// disabled.
func (c CompilerConfig) EffectiveNegationKey() string {
	if c.NegationKey == NegationDisabled {
		return ""
	}
	return c.NegationKey
}

// FilterConfig contains settings for the filtering worker pool.
type FilterConfig struct {
	// Workers is the pool size. Zero uses one worker per CPU; a negative
	// value disables the pool and filters on the calling goroutine.
	// Default: 0
	Workers int `yaml:"workers"`

	// ChunkSize is the number of records handed to a worker at once.
	// Collections no larger than one chunk are filtered sequentially.
	// Default: 1024
	ChunkSize int `yaml:"chunk_size"`
}

// CatalogConfig contains query catalog settings.
type CatalogConfig struct {
	// Path is a query file or a directory of query files.
	// Default: "./queries"
	Path string `yaml:"path"`

	// Watch reloads the catalog when query files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period before a change triggers a reload.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`
}

// HistoryConfig contains the scheduled run history settings.
type HistoryConfig struct {
	// Enabled records every scheduled run.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver is the SQLite driver, "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the history database file.
	// Default: "./pursuit-history.db"
	Path string `yaml:"path"`

	// Retention is how long runs are kept. Zero keeps runs forever.
	Retention time.Duration `yaml:"retention"`

	// MaxRuns caps the number of stored runs. Zero means unlimited.
	MaxRuns int `yaml:"max_runs"`

	// PruneSchedule is a cron expression for pruning old runs. Empty
	// disables automatic pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// ServerConfig contains HTTP filter API settings.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits request bodies.
	// Default: 10MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CacheSize is the number of compiled ad-hoc queries kept in the LRU
	// cache. Zero disables the cache.
	// Default: 256
	CacheSize int `yaml:"cache_size"`

	// Auth requires an API key on the /v1 routes.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit limits /v1 requests per client.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig contains API key authentication settings.
type AuthConfig struct {
	// Enabled rejects /v1 requests without a valid key.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Keys lists the accepted API keys.
	Keys []access.Key `yaml:"keys"`
}

// RateLimitConfig contains per-client rate limiting settings. Clients are
// identified by API key when auth is enabled and by remote address
// otherwise.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate per client.
	// Default: 10
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests a client may make at once.
	// Default: 20
	Burst int `yaml:"burst"`

	// MaxClients bounds the number of clients tracked at once.
	// Default: 10000
	MaxClients int `yaml:"max_clients"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks personal data such as email addresses in log output.
	// Default: false
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// A pointer so that an explicit false survives defaulting.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "pursuit"
	Namespace string `yaml:"namespace"`
}

// IsEnabled reports whether metrics are on.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "pursuit"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
