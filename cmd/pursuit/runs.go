package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/history"
)

var runsFlags struct {
	job    string
	query  string
	status string
	since  time.Duration
	limit  int
	format string
	prune  bool
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scheduled runs",
	Long: `List scheduled runs recorded in the run history database, newest first.

The history is written by "pursuit serve" when history.enabled is set.

Examples:
  # Show the latest runs
  pursuit runs

  # Failed runs of one job in the last day
  pursuit runs --job nightly-adults --status error --since 24h

  # Apply the configured retention now
  pursuit runs --prune`,
	RunE: runRunsCmd,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsFlags.job, "job", "", "only runs of this job")
	runsCmd.Flags().StringVar(&runsFlags.query, "query-name", "", "only runs of this catalog query")
	runsCmd.Flags().StringVar(&runsFlags.status, "status", "", "only runs with this status (success, error)")
	runsCmd.Flags().DurationVar(&runsFlags.since, "since", 0, "only runs started within this duration")
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 20, "maximum number of runs to show")
	runsCmd.Flags().StringVarP(&runsFlags.format, "format", "f", "text", "output format (text, json, csv)")
	runsCmd.Flags().BoolVar(&runsFlags.prune, "prune", false, "delete runs beyond the configured retention and exit")
}

func runRunsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	f := history.Filter{
		Job:    runsFlags.job,
		Query:  runsFlags.query,
		Status: runsFlags.status,
		Limit:  runsFlags.limit,
	}
	if runsFlags.since > 0 {
		f.Since = time.Now().Add(-runsFlags.since)
	}

	return runRuns(cmd.Context(), cfg, f, runsFlags.format, runsFlags.prune, cmd.OutOrStdout(), logger)
}

// openHistory opens the configured run history database.
func openHistory(cfg *config.Config, logger *slog.Logger) (history.Store, error) {
	store, err := history.NewSQLiteStore(history.SQLiteConfig{
		Path:    cfg.History.Path,
		Driver:  cfg.History.Driver,
		WALMode: true,
	}, logger)
	if err != nil {
		return nil, cli.NewConfigError("history", err.Error())
	}
	return store, nil
}

func newPruner(cfg *config.Config, store history.Store, logger *slog.Logger) (*history.Pruner, error) {
	p, err := history.NewPruner(store, history.PrunerConfig{
		Retention: cfg.History.Retention,
		MaxRuns:   int64(cfg.History.MaxRuns),
		Schedule:  cfg.History.PruneSchedule,
	}, logger)
	if err != nil {
		return nil, cli.NewConfigError("history", err.Error())
	}
	return p, nil
}

// runRuns lists runs matching f, or prunes the history when prune is set.
func runRuns(ctx context.Context, cfg *config.Config, f history.Filter, format string, prune bool, out io.Writer, logger *slog.Logger) error {
	outFmt, err := cli.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		return cli.NewConfigError("history.path", fmt.Sprintf("no run history at %s", cfg.History.Path))
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if prune {
		p, err := newPruner(cfg, store, logger)
		if err != nil {
			return err
		}
		deleted, err := p.Prune(ctx)
		if err != nil {
			return cli.NewCommandError("runs", err)
		}
		fmt.Fprintf(out, "✓ Pruned %d run(s)\n", deleted)
		return nil
	}

	runs, err := store.List(ctx, f)
	if err != nil {
		return cli.NewConfigError("runs", err.Error())
	}

	if outFmt == cli.FormatText {
		return cli.NewFormatter(outFmt).FormatTo(out, runTable(runs))
	}

	rows := make([]interface{}, len(runs))
	for i, r := range runs {
		rows[i] = map[string]interface{}{
			"id":          r.ID,
			"job":         r.Job,
			"query":       r.Query,
			"revision":    r.Revision,
			"status":      r.Status(),
			"total":       r.Total,
			"matched":     r.Matched,
			"started":     r.Started.UTC().Format(time.RFC3339),
			"duration_ms": r.Duration.Milliseconds(),
			"error":       r.Error,
		}
	}
	return cli.NewFormatter(outFmt).FormatTo(out, rows)
}

// runTable prints one run per line.
type runTable []*history.Run

func (t runTable) String() string {
	if len(t) == 0 {
		return "No runs recorded"
	}
	var sb strings.Builder
	for _, r := range t {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
