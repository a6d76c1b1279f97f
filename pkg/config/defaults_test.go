package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Compiler.OptimizeEnabled() {
					t.Error("expected optimizer enabled by default")
				}
				if cfg.Compiler.NegationKey != DefaultNegationKey {
					t.Errorf("expected negation key %q, got %q", DefaultNegationKey, cfg.Compiler.NegationKey)
				}
				if cfg.Compiler.PathSeparator != "." {
					t.Errorf("expected path separator %q, got %q", ".", cfg.Compiler.PathSeparator)
				}
				if cfg.Filter.ChunkSize != DefaultChunkSize {
					t.Errorf("expected chunk size %d, got %d", DefaultChunkSize, cfg.Filter.ChunkSize)
				}
				if cfg.Catalog.Path != DefaultCatalogPath {
					t.Errorf("expected catalog path %q, got %q", DefaultCatalogPath, cfg.Catalog.Path)
				}
				if cfg.History.Enabled || cfg.History.Driver != "sqlite" || cfg.History.PruneSchedule != DefaultHistoryPruneSchedule {
					t.Errorf("unexpected history defaults %+v", cfg.History)
				}
				if cfg.Server.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
				}
				if cfg.Server.CacheSize != DefaultCacheSize {
					t.Errorf("expected cache size %d, got %d", DefaultCacheSize, cfg.Server.CacheSize)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if !cfg.Telemetry.Metrics.IsEnabled() {
					t.Error("expected metrics enabled by default")
				}
				if cfg.Telemetry.Tracing.Enabled {
					t.Error("expected tracing disabled by default")
				}
				if cfg.Telemetry.Health.ReadinessPath != DefaultHealthReadinessPath {
					t.Errorf("expected readiness path %q, got %q", DefaultHealthReadinessPath, cfg.Telemetry.Health.ReadinessPath)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Compiler: CompilerConfig{NegationKey: "$not", PathSeparator: "/"},
				Server:   ServerConfig{ListenAddress: "0.0.0.0:9000", ReadTimeout: 5 * time.Second},
				Catalog:  CatalogConfig{Debounce: time.Second},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Compiler.NegationKey != "$not" {
					t.Errorf("negation key overwritten: %q", cfg.Compiler.NegationKey)
				}
				if cfg.Compiler.PathSeparator != "/" {
					t.Errorf("path separator overwritten: %q", cfg.Compiler.PathSeparator)
				}
				if cfg.Server.ListenAddress != "0.0.0.0:9000" {
					t.Errorf("listen address overwritten: %q", cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != 5*time.Second {
					t.Errorf("read timeout overwritten: %v", cfg.Server.ReadTimeout)
				}
				if cfg.Server.WriteTimeout != DefaultWriteTimeout {
					t.Errorf("expected write timeout default, got %v", cfg.Server.WriteTimeout)
				}
				if cfg.Catalog.Debounce != time.Second {
					t.Errorf("debounce overwritten: %v", cfg.Catalog.Debounce)
				}
			},
		},
		{
			name:  "explicit optimize false survives",
			input: Config{Compiler: CompilerConfig{Optimize: boolPtr(false)}},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Compiler.OptimizeEnabled() {
					t.Error("expected optimizer disabled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Default() is invalid: %v", err)
	}
}

func TestCompilerConfig_EffectiveNegationKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "!not", want: "!not"},
		{key: NegationDisabled, want: ""},
		{key: "$not", want: "$not"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := CompilerConfig{NegationKey: tt.key}
			if got := cfg.EffectiveNegationKey(); got != tt.want {
				t.Errorf("EffectiveNegationKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }
