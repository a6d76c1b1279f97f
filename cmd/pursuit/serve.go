package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/catalog"
	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/filter"
	"mercator-hq/pursuit/pkg/history"
	"mercator-hq/pursuit/pkg/schedule"
	"mercator-hq/pursuit/pkg/server"
	"mercator-hq/pursuit/pkg/telemetry"
	"mercator-hq/pursuit/pkg/telemetry/health"
	"mercator-hq/pursuit/pkg/telemetry/tracing"
)

// historyWriteTimeout bounds recording one scheduled run.
const historyWriteTimeout = 5 * time.Second

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP filter API",
	Long: `Start the HTTP filter API with the query catalog and scheduled jobs.

The server compiles ad-hoc descriptors posted to /v1/filter, serves the named
queries of the catalog under /v1/queries, and runs the configured schedules.
With catalog.watch enabled, query files are reloaded when they change.

Examples:
  # Start with defaults
  pursuit serve

  # Start with a config file
  pursuit serve --config /etc/pursuit/pursuit.yaml

  # Override listen address
  pursuit serve --listen 0.0.0.0:8080

  # Validate config and catalog without starting the server
  pursuit serve --dry-run`,
	RunE: runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "load config and catalog without starting the server")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	return runServe(ctx, cfg, serveFlags.dryRun, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// service is the running set of components behind the HTTP API.
type service struct {
	telemetry *telemetry.Telemetry
	catalog   *catalog.Catalog
	pool      *filter.Pool
	scheduler *schedule.Scheduler
	history   history.Store
	pruner    *history.Pruner
	server    *server.Server
}

// close releases everything newService created.
func (s *service) close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.pruner != nil {
		s.pruner.Stop()
	}
	if s.history != nil {
		s.history.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.telemetry.Shutdown(context.Background())
}

// newService builds the components from cfg and loads the catalog once. A
// catalog that fails to load leaves the server running but not ready.
func newService(ctx context.Context, cfg *config.Config, logw io.Writer) (*service, error) {
	tel, err := telemetry.New(&cfg.Telemetry, logw)
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err.Error())
	}
	svc := &service{telemetry: tel}
	logger := tel.Logger()
	collector := tel.Metrics()

	c, err := newCompiler(cfg, nil, logger)
	if err != nil {
		svc.close()
		return nil, err
	}

	svc.catalog, err = catalog.New(catalog.Config{
		Path:     cfg.Catalog.Path,
		Debounce: cfg.Catalog.Debounce,
		OnReload: func(snap *catalog.Snapshot, err error) {
			n := 0
			if snap != nil {
				n = snap.Len()
			}
			collector.RecordCatalogReload(n, err)
		},
	}, c, logger)
	if err != nil {
		svc.close()
		return nil, err
	}

	_, span := tel.Tracer().Start(ctx, tracing.SpanReload)
	err = svc.catalog.Load()
	snap := svc.catalog.Snapshot()
	span.SetAttributes(tracing.CatalogAttributes(snap.Revision, snap.Len())...)
	tracing.End(span, err)
	if err != nil {
		logger.Error("failed to load query catalog", "path", cfg.Catalog.Path, "error", err)
	} else {
		logger.Info("query catalog loaded", "path", cfg.Catalog.Path, "queries", snap.Len(), "revision", snap.Revision)
	}

	if cfg.Filter.Workers >= 0 {
		svc.pool, err = filter.NewPool(filter.Config{
			Workers:   cfg.Filter.Workers,
			ChunkSize: cfg.Filter.ChunkSize,
		}, logger)
		if err != nil {
			svc.close()
			return nil, err
		}
	}

	checker := tel.Health()
	checker.RegisterCheck("catalog", health.CatalogCheck(svc.catalog))

	if cfg.History.Enabled {
		svc.history, err = openHistory(cfg, logger)
		if err != nil {
			svc.close()
			return nil, err
		}
		svc.pruner, err = newPruner(cfg, svc.history, logger)
		if err != nil {
			svc.close()
			return nil, err
		}
	}

	if len(cfg.Schedules) > 0 {
		svc.scheduler, err = schedule.New(schedule.Config{
			Jobs: cfg.Schedules,
			OnResult: func(r schedule.Result) {
				collector.RecordScheduledRun(r.Job, r.Matched, r.Duration, r.Err)
				if svc.history == nil {
					return
				}
				rctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
				defer cancel()
				if err := svc.history.Record(rctx, history.FromResult(r)); err != nil {
					logger.Error("failed to record scheduled run", "job", r.Job, "run_id", r.RunID, "error", err)
				}
			},
		}, svc.catalog, svc.pool, logger)
		if err != nil {
			svc.close()
			return nil, cli.NewConfigError("schedules", err.Error())
		}
		checker.RegisterCheck("scheduler", health.RunningCheck("scheduler", svc.scheduler.Running))
	}

	svc.server, err = server.New(cfg, server.Options{
		Compiler: c,
		Catalog:  svc.catalog,
		Pool:     svc.pool,
		History:  svc.history,
		Metrics:  collector,
		Tracer:   tel.Tracer(),
		Health:   checker,
		Logger:   logger,
		Version:  Version,
	})
	if err != nil {
		svc.close()
		return nil, err
	}

	return svc, nil
}

// runServe serves until ctx is cancelled. Status lines go to out and logs to
// logw.
func runServe(ctx context.Context, cfg *config.Config, dryRun bool, out, logw io.Writer) error {
	svc, err := newService(ctx, cfg, logw)
	if err != nil {
		return err
	}
	defer svc.close()
	logger := svc.telemetry.Logger()

	if dryRun {
		if err := svc.catalog.LastError(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		fmt.Fprintln(out, "✓ Configuration valid")
		fmt.Fprintf(out, "✓ Catalog loaded (%d queries)\n", svc.catalog.Snapshot().Len())
		return nil
	}

	if cfg.Catalog.Watch {
		go func() {
			if err := svc.catalog.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalog watch stopped", "error", err)
			}
		}()
	}

	if svc.scheduler != nil {
		if err := svc.scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		fmt.Fprintf(out, "✓ Scheduler started (%d jobs)\n", len(cfg.Schedules))
	}

	if svc.pruner != nil {
		if err := svc.pruner.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		if next, ok := svc.pruner.NextRun(); ok {
			logger.Info("run history pruning scheduled", "next", next)
		}
	}

	printBanner(out, cfg)
	logger.Info("starting HTTP server", "address", cfg.Server.ListenAddress)

	if err := svc.server.ListenAndServe(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	addr := cfg.Server.ListenAddress
	fmt.Fprintf(w, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(w, "✓ Filter endpoint: http://%s/v1/filter\n", addr)
	if p := cfg.Telemetry.Health.LivenessPath; p != "" {
		fmt.Fprintf(w, "✓ Health endpoint: http://%s%s\n", addr, p)
	}
	if cfg.History.Enabled {
		fmt.Fprintf(w, "✓ Run history: http://%s/v1/runs\n", addr)
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		fmt.Fprintf(w, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
