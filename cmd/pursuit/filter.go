package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/filter"
	"mercator-hq/pursuit/pkg/records"
	"mercator-hq/pursuit/pkg/telemetry/tracing"
)

var filterFlags struct {
	query      queryFlags
	records    recordFlags
	noOptimize bool
	format     string
	output     string
	count      bool
	parallel   bool
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter records with a query descriptor",
	Long: `Compile a query descriptor and print the records it matches.

Records are read from a JSON, JSON Lines or YAML file, or from a SQLite table,
and are printed in their original order.

Examples:
  # Filter with a single descriptor file
  pursuit filter --query adults.yaml --records people.json

  # Pick a query from a query file
  pursuit filter --query queries/people.yaml --name adult-women --records people.jsonl

  # Inline descriptor, CSV output
  pursuit filter --expr '{"age": {"greaterThan": 20}}' --records people.json --format csv

  # Read from SQLite and write matches to a file
  pursuit filter --query adults.yaml --records people.db --table people --output adults.jsonl

  # Count matches using the worker pool
  pursuit filter --query adults.yaml --records people.json --count --parallel`,
	RunE: runFilterCmd,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterFlags.query.register(filterCmd)
	filterFlags.records.register(filterCmd)
	filterCmd.Flags().BoolVar(&filterFlags.noOptimize, "no-optimize", false, "evaluate tests in declaration order")
	filterCmd.Flags().StringVarP(&filterFlags.format, "format", "f", "text", "output format: text, json, csv")
	filterCmd.Flags().StringVarP(&filterFlags.output, "output", "o", "", "write matches to a file (.json, .jsonl, .yaml) instead of stdout")
	filterCmd.Flags().BoolVar(&filterFlags.count, "count", false, "print the number of matches only")
	filterCmd.Flags().BoolVar(&filterFlags.parallel, "parallel", false, "filter on the worker pool")
}

// filterOptions are the resolved filter command inputs.
type filterOptions struct {
	Query    queryFlags
	Records  recordFlags
	Optimize *bool
	Format   string
	Output   string
	Count    bool
	Parallel bool
}

func runFilterCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	opts := filterOptions{
		Query:    filterFlags.query,
		Records:  filterFlags.records,
		Format:   filterFlags.format,
		Output:   filterFlags.output,
		Count:    filterFlags.count,
		Parallel: filterFlags.parallel,
	}
	if filterFlags.noOptimize {
		opts.Optimize = boolPtr(false)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer tracer.Shutdown(context.Background())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	return runFilter(ctx, cfg, opts, cmd.OutOrStdout(), logger, tracer)
}

// runFilter compiles the query, loads the records and writes the matches.
// tracer may be nil.
func runFilter(ctx context.Context, cfg *config.Config, opts filterOptions, out io.Writer, logger *slog.Logger, tracer *tracing.Tracer) error {
	format, err := cli.ParseOutputFormat(opts.Format)
	if err != nil {
		return err
	}

	lq, err := opts.Query.load()
	if err != nil {
		return err
	}

	c, err := newCompiler(cfg, opts.Optimize, logger)
	if err != nil {
		return err
	}
	_, span := tracer.Start(ctx, tracing.SpanCompile)
	q, err := c.Compile(lq.Descriptor)
	if q != nil {
		span.SetAttributes(tracing.QueryAttributes(lq.Label, q.Strategy(), len(q.Plan().Tests()), q.Plan().Estimate.Cost)...)
	}
	tracing.End(span, err)
	if err != nil {
		return fmt.Errorf("query %s: %w", lq.Label, err)
	}

	loadCtx, span := tracer.Start(ctx, tracing.SpanLoad)
	recs, source, err := loadRecords(loadCtx, opts.Records.spec(cfg.Records))
	span.SetAttributes(attribute.String(tracing.AttrRecordsSource, source))
	tracing.End(span, err)
	if err != nil {
		return err
	}

	filterCtx, span := tracer.Start(ctx, tracing.SpanFilter)
	mode := "sequential"
	start := time.Now()
	var matched []interface{}
	if opts.Parallel {
		mode = "parallel"
		matched, err = filterParallel(filterCtx, cfg, recs, q.Predicate(), logger)
	} else {
		matched = filter.Slice(recs, q.Predicate())
	}
	span.SetAttributes(tracing.FilterAttributes(mode, len(recs), len(matched))...)
	tracing.End(span, err)
	if err != nil {
		return err
	}

	logger.Debug("filtered records",
		"query", lq.Label,
		"source", source,
		"strategy", q.Strategy(),
		"mode", mode,
		"total", len(recs),
		"matched", len(matched),
		"duration", time.Since(start),
	)

	if opts.Count {
		_, err := fmt.Fprintln(out, len(matched))
		return err
	}

	if opts.Output != "" {
		if err := records.WriteFile(opts.Output, matched); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %d of %d records to %s\n", len(matched), len(recs), opts.Output)
		return nil
	}

	if matched == nil {
		matched = []interface{}{}
	}
	return cli.NewFormatter(format).FormatTo(out, matched)
}

func filterParallel(ctx context.Context, cfg *config.Config, recs []interface{}, pred compiler.Predicate, logger *slog.Logger) ([]interface{}, error) {
	pool, err := filter.NewPool(filter.Config{
		Workers:   cfg.Filter.Workers,
		ChunkSize: cfg.Filter.ChunkSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return pool.Filter(ctx, recs, pred)
}
