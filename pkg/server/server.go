package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/pursuit/pkg/access"
	"mercator-hq/pursuit/pkg/catalog"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/filter"
	"mercator-hq/pursuit/pkg/history"
	"mercator-hq/pursuit/pkg/telemetry/health"
	"mercator-hq/pursuit/pkg/telemetry/metrics"
	"mercator-hq/pursuit/pkg/telemetry/tracing"
)

// ErrAlreadyRunning is returned by Serve on a running server.
var ErrAlreadyRunning = errors.New("server is already running")

// Options holds the components a Server serves. Compiler is required; the
// rest are optional.
type Options struct {
	Compiler *compiler.Compiler
	// Catalog enables the named query routes.
	Catalog *catalog.Catalog
	// Pool filters large collections in parallel.
	Pool *filter.Pool
	// History enables GET /v1/runs.
	History history.Store
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
	Logger  *slog.Logger
	// Version is reported by GET /version.
	Version string
}

// Server is the HTTP filter API.
type Server struct {
	cfg       config.ServerConfig
	telemetry config.TelemetryConfig

	catalog *catalog.Catalog
	pool    *filter.Pool
	history history.Store
	cache   *queryCache
	keys    *access.Keyring
	limiter *access.Limiter
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
	logger  *slog.Logger
	version string

	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a server from cfg.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if opts.Compiler == nil {
		return nil, errors.New("server requires a compiler")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checker := opts.Health
	if checker == nil {
		checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	}

	cache, err := newQueryCache(opts.Compiler, cfg.Server.CacheSize, opts.Metrics)
	if err != nil {
		return nil, err
	}

	serverCfg := cfg.Server
	if serverCfg.MaxBodyBytes <= 0 {
		serverCfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}

	var keys *access.Keyring
	if serverCfg.Auth.Enabled {
		keys, err = access.NewKeyring(serverCfg.Auth.Keys)
		if err != nil {
			return nil, fmt.Errorf("invalid auth config: %w", err)
		}
	}
	var limiter *access.Limiter
	if serverCfg.RateLimit.Enabled {
		limiter, err = access.NewLimiter(access.LimiterConfig{
			Rate:       serverCfg.RateLimit.RequestsPerSecond,
			Burst:      serverCfg.RateLimit.Burst,
			MaxClients: serverCfg.RateLimit.MaxClients,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit config: %w", err)
		}
	}

	s := &Server{
		cfg:       serverCfg,
		telemetry: cfg.Telemetry,
		catalog:   opts.Catalog,
		pool:      opts.Pool,
		history:   opts.History,
		cache:     cache,
		keys:      keys,
		limiter:   limiter,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		health:    checker,
		logger:    logger.With("component", "server"),
		version:   opts.Version,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with every route and middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/filter", s.handleFilter)
	if s.catalog != nil {
		mux.HandleFunc("GET /v1/queries", s.handleListQueries)
		mux.HandleFunc("GET /v1/queries/{name}", s.handleGetQuery)
		mux.HandleFunc("POST /v1/queries/{name}/filter", s.handleNamedFilter)
	}
	if s.history != nil {
		mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	}

	hc := s.telemetry.Health
	if hc.LivenessPath != "" {
		mux.Handle("GET "+hc.LivenessPath, s.health.LivenessHandler())
	}
	if hc.ReadinessPath != "" {
		mux.Handle("GET "+hc.ReadinessPath, s.health.ReadinessHandler())
	}
	mux.Handle("GET /version", healthVersion(s.version))

	if s.telemetry.Metrics.IsEnabled() && s.metrics != nil && s.telemetry.Metrics.Path != "" {
		mux.Handle("GET "+s.telemetry.Metrics.Path, s.metrics.Handler())
	}

	mws := []middleware{
		requestID,
		instrument(s.logger, s.metrics, s.tracer),
		recovery(s.logger),
	}
	if s.keys != nil {
		mws = append(mws, authenticate(s.keys, s.logger, s.metrics))
	}
	if s.limiter != nil {
		mws = append(mws, rateLimit(s.limiter, s.logger, s.metrics))
	}
	return chain(mux, mws...)
}

func healthVersion(version string) http.Handler {
	if version == "" {
		version = "dev"
	}
	return health.VersionHandler(version, "", "")
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrAlreadyRunning
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.httpServer = srv
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting filter API", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("filter API stopped")
	return nil
}

// Running reports whether the server is serving.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}
