package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PURSUIT_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults. It does not
// validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention PURSUIT_SECTION_FIELD (e.g., PURSUIT_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path starts from the defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// envOverrides collects typed overrides and remembers the first malformed
// value.
type envOverrides struct {
	lookup lookupFunc
	err    error
}

func (e *envOverrides) str(name string, dst *string) {
	if val, ok := e.lookup(EnvPrefix + name); ok && val != "" {
		*dst = val
	}
}

func (e *envOverrides) boolean(name string, dst *bool) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(name, val, err)
		return
	}
	*dst = b
}

func (e *envOverrides) boolPtr(name string, dst **bool) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(name, val, err)
		return
	}
	*dst = &b
}

func (e *envOverrides) integer(name string, dst *int) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		e.fail(name, val, err)
		return
	}
	*dst = i
}

func (e *envOverrides) float(name string, dst *float64) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		e.fail(name, val, err)
		return
	}
	*dst = f
}

func (e *envOverrides) duration(name string, dst *time.Duration) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.fail(name, val, err)
		return
	}
	*dst = d
}

func (e *envOverrides) fail(name, val string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid value %q for %s%s: %w", val, EnvPrefix, name, err)
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format PURSUIT_SECTION_FIELD.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	e := &envOverrides{lookup: lookup}

	// Compiler overrides
	e.boolPtr("COMPILER_OPTIMIZE", &cfg.Compiler.Optimize)
	e.str("COMPILER_NEGATION_KEY", &cfg.Compiler.NegationKey)
	e.str("COMPILER_PATH_SEPARATOR", &cfg.Compiler.PathSeparator)

	// Filter overrides
	e.integer("FILTER_WORKERS", &cfg.Filter.Workers)
	e.integer("FILTER_CHUNK_SIZE", &cfg.Filter.ChunkSize)

	// Records overrides
	e.str("RECORDS_TYPE", &cfg.Records.Type)
	e.str("RECORDS_PATH", &cfg.Records.Path)
	e.str("RECORDS_FORMAT", &cfg.Records.Format)
	e.str("RECORDS_DRIVER", &cfg.Records.Driver)
	e.str("RECORDS_TABLE", &cfg.Records.Table)

	// Catalog overrides
	e.str("CATALOG_PATH", &cfg.Catalog.Path)
	e.boolean("CATALOG_WATCH", &cfg.Catalog.Watch)
	e.duration("CATALOG_DEBOUNCE", &cfg.Catalog.Debounce)

	// History overrides
	e.boolean("HISTORY_ENABLED", &cfg.History.Enabled)
	e.str("HISTORY_DRIVER", &cfg.History.Driver)
	e.str("HISTORY_PATH", &cfg.History.Path)
	e.duration("HISTORY_RETENTION", &cfg.History.Retention)
	e.integer("HISTORY_MAX_RUNS", &cfg.History.MaxRuns)
	e.str("HISTORY_PRUNE_SCHEDULE", &cfg.History.PruneSchedule)

	// Server overrides
	e.str("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	e.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	e.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	e.duration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	e.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.integer("SERVER_CACHE_SIZE", &cfg.Server.CacheSize)
	e.boolean("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	e.boolean("SERVER_RATE_LIMIT_ENABLED", &cfg.Server.RateLimit.Enabled)
	e.float("SERVER_RATE_LIMIT_REQUESTS_PER_SECOND", &cfg.Server.RateLimit.RequestsPerSecond)
	e.integer("SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)

	// Telemetry overrides
	e.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	e.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	e.boolPtr("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	e.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	e.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	e.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	e.boolean("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	e.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	e.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	return e.err
}
