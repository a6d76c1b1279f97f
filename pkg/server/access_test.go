package server

import (
	"net/http"
	"testing"

	"mercator-hq/pursuit/pkg/access"
	"mercator-hq/pursuit/pkg/config"
)

func withAuth(cfg *config.Config) {
	cfg.Server.Auth.Enabled = true
	cfg.Server.Auth.Keys = []access.Key{
		{ID: "ops", Key: "ops-secret"},
		{ID: "retired", Key: "old-secret", Disabled: true},
	}
}

func TestAuth(t *testing.T) {
	f := newFixture(t, withAuth, true)

	tests := []struct {
		name       string
		path       string
		headers    []string
		wantStatus int
	}{
		{name: "no key", path: "/v1/queries", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", path: "/v1/queries", headers: []string{"Authorization", "Bearer guess"}, wantStatus: http.StatusUnauthorized},
		{name: "disabled key", path: "/v1/queries", headers: []string{access.APIKeyHeader, "old-secret"}, wantStatus: http.StatusUnauthorized},
		{name: "bearer", path: "/v1/queries", headers: []string{"Authorization", "Bearer ops-secret"}, wantStatus: http.StatusOK},
		{name: "api key header", path: "/v1/queries/adults", headers: []string{access.APIKeyHeader, "ops-secret"}, wantStatus: http.StatusOK},
		{name: "liveness open", path: "/health", wantStatus: http.StatusOK},
		{name: "version open", path: "/version", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "", tt.headers...)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d: %s", tt.path, rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("missing WWW-Authenticate header")
				}
				resp := decodeBody[ErrorResponse](t, rec)
				if resp.Error.Type != ErrorTypeUnauthorized {
					t.Errorf("error type = %q, want %q", resp.Error.Type, ErrorTypeUnauthorized)
				}
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		withAuth(cfg)
		cfg.Server.RateLimit.Enabled = true
		cfg.Server.RateLimit.RequestsPerSecond = 0.001
		cfg.Server.RateLimit.Burst = 2
	}, true)

	auth := []string{"Authorization", "Bearer ops-secret"}
	for i := 0; i < 2; i++ {
		if rec := f.do(t, http.MethodGet, "/v1/queries", "", auth...); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/queries", "", auth...)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if resp := decodeBody[ErrorResponse](t, rec); resp.Error.Type != ErrorTypeRateLimited {
		t.Errorf("error type = %q, want %q", resp.Error.Type, ErrorTypeRateLimited)
	}

	// Probes are not rate limited.
	if rec := f.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestNew_InvalidAccessConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "auth without keys", mutate: func(cfg *config.Config) { cfg.Server.Auth.Enabled = true }},
		{name: "zero rate", mutate: func(cfg *config.Config) {
			cfg.Server.RateLimit.Enabled = true
			cfg.Server.RateLimit.RequestsPerSecond = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			c := newFixture(t, nil, false).server.cache.compiler
			if _, err := New(cfg, Options{Compiler: c, Logger: discard()}); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}
