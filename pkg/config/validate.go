package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"mercator-hq/pursuit/pkg/access"
	"mercator-hq/pursuit/pkg/history"
	"mercator-hq/pursuit/pkg/records"
	"mercator-hq/pursuit/pkg/schedule"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Has reports whether a field failed validation.
func (e ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCompiler(&cfg.Compiler)...)
	errs = append(errs, validateFilter(&cfg.Filter)...)
	errs = append(errs, validateRecords("records", cfg.Records, false)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateSchedules(cfg.Schedules)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateCompiler(cfg *CompilerConfig) []FieldError {
	var errs []FieldError

	if cfg.PathSeparator == "" {
		errs = append(errs, FieldError{
			Field:   "compiler.path_separator",
			Message: "path separator is required",
		})
	}
	if key := cfg.EffectiveNegationKey(); key != "" && cfg.PathSeparator != "" && strings.Contains(key, cfg.PathSeparator) {
		errs = append(errs, FieldError{
			Field:   "compiler.negation_key",
			Message: fmt.Sprintf("negation key %q must not contain the path separator %q", key, cfg.PathSeparator),
		})
	}

	return errs
}

func validateFilter(cfg *FilterConfig) []FieldError {
	var errs []FieldError

	if cfg.ChunkSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "filter.chunk_size",
			Message: "chunk size must be positive",
		})
	}

	return errs
}

// validateRecords checks a record source. An empty path is allowed unless
// required, since commands may supply records on the command line.
func validateRecords(field string, spec records.Spec, required bool) []FieldError {
	var errs []FieldError

	if spec.Path == "" {
		if required {
			errs = append(errs, FieldError{Field: field + ".path", Message: "record source path is required"})
		}
		return errs
	}
	if _, err := records.Open(spec); err != nil {
		errs = append(errs, FieldError{Field: field, Message: err.Error()})
	}

	return errs
}

func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.debounce",
			Message: "debounce must be positive",
		})
	}
	if cfg.Debounce > time.Minute {
		errs = append(errs, FieldError{
			Field:   "catalog.debounce",
			Message: "debounce exceeds reasonable limit (1m)",
		})
	}

	return errs
}

func validateSchedules(jobs []schedule.Job) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(jobs))

	for i, job := range jobs {
		field := fmt.Sprintf("schedules[%d]", i)
		if err := schedule.ValidateJob(job); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
			continue
		}
		if seen[job.Name] {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate job name %q", job.Name),
			})
		}
		seen[job.Name] = true
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if cfg.Driver != records.DriverSQLite && cfg.Driver != records.DriverSQLite3 {
		errs = append(errs, FieldError{
			Field:   "history.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.Driver),
		})
	}
	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		})
	}
	if cfg.Retention < 0 {
		errs = append(errs, FieldError{Field: "history.retention", Message: "retention must be non-negative"})
	}
	if cfg.MaxRuns < 0 {
		errs = append(errs, FieldError{Field: "history.max_runs", Message: "max runs must be non-negative"})
	}
	if err := history.ValidateSchedule(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{Field: "history.prune_schedule", Message: err.Error()})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}
	if cfg.CacheSize < 0 {
		errs = append(errs, FieldError{Field: "server.cache_size", Message: "cache size must be non-negative"})
	}

	if cfg.Auth.Enabled {
		if _, err := access.NewKeyring(cfg.Auth.Keys); err != nil {
			errs = append(errs, FieldError{Field: "server.auth.keys", Message: err.Error()})
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{Field: "server.rate_limit.requests_per_second", Message: "rate must be positive"})
		}
		if cfg.RateLimit.Burst < 0 {
			errs = append(errs, FieldError{Field: "server.rate_limit.burst", Message: "burst must be non-negative"})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.IsEnabled() && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if !strings.HasPrefix(cfg.Health.LivenessPath, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.liveness_path",
			Message: "liveness path must start with /",
		})
	}
	if !strings.HasPrefix(cfg.Health.ReadinessPath, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.readiness_path",
			Message: "readiness path must start with /",
		})
	}
	if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be between 0 and 60s",
		})
	}

	return errs
}
