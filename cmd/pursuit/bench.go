package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/filter"
)

var benchFlags struct {
	query      queryFlags
	records    recordFlags
	iterations int
	generate   int
	format     string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare optimized and declaration-order evaluation",
	Long: `Compile a query twice, once with the cost-based optimizer and once in
declaration order, filter the same records repeatedly with each, and report
the timings. Both plans must match the same records.

Without --query or --expr a built-in people query is used. Without
--records a deterministic set of people records is generated.

Examples:
  # Built-in query against generated records
  pursuit bench --generate 50000 --iterations 20

  # Your own query and records
  pursuit bench --query adults.yaml --records people.jsonl --iterations 200`,
	RunE: runBenchCmd,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchFlags.query.register(benchCmd)
	benchFlags.records.register(benchCmd)
	benchCmd.Flags().IntVar(&benchFlags.iterations, "iterations", 100, "filtering passes per strategy")
	benchCmd.Flags().IntVar(&benchFlags.generate, "generate", 10000, "number of records to generate when --records is not set")
	benchCmd.Flags().StringVarP(&benchFlags.format, "format", "f", "text", "output format: text, json")
}

// benchOptions are the resolved bench command inputs.
type benchOptions struct {
	Query      queryFlags
	Records    recordFlags
	Iterations int
	Generate   int
	Format     string
}

// strategyResult is the timing of one strategy.
type strategyResult struct {
	Strategy  string        `json:"strategy"`
	Tests     int           `json:"tests"`
	Matched   int           `json:"matched"`
	Total     time.Duration `json:"total_ns"`
	PerPass   time.Duration `json:"per_pass_ns"`
	PerRecord float64       `json:"per_record_ns"`
}

type benchReport struct {
	Query      string           `json:"query"`
	Records    int              `json:"records"`
	Iterations int              `json:"iterations"`
	Results    []strategyResult `json:"results"`
	Speedup    float64          `json:"speedup"`
}

func (r benchReport) String() string {
	s := fmt.Sprintf("Query: %s\nRecords: %d\nIterations: %d\n\n", r.Query, r.Records, r.Iterations)
	for _, res := range r.Results {
		s += fmt.Sprintf("%-12s %3d tests  %7d matched  %12s/pass  %8.1f ns/record\n",
			res.Strategy, res.Tests, res.Matched, res.PerPass, res.PerRecord)
	}
	s += fmt.Sprintf("\nSpeedup (declaration/cost): %.2fx\n", r.Speedup)
	return s
}

func runBenchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	opts := benchOptions{
		Query:      benchFlags.query,
		Records:    benchFlags.records,
		Iterations: benchFlags.iterations,
		Generate:   benchFlags.generate,
		Format:     benchFlags.format,
	}
	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "Benchmarking", "pass")
	return runBench(ctx, cfg, opts, cmd.OutOrStdout(), progress, logger)
}

// runBench times both strategies over the same records and fails if they
// disagree on the number of matches.
func runBench(ctx context.Context, cfg *config.Config, opts benchOptions, out io.Writer, progress cli.ProgressReporter, logger *slog.Logger) error {
	outFormat, err := cli.ParseOutputFormat(opts.Format)
	if err != nil {
		return err
	}
	if outFormat == cli.FormatCSV {
		return cli.NewConfigError("format", "bench supports text and json")
	}
	if opts.Iterations <= 0 {
		return cli.NewConfigError("iterations", "must be positive")
	}

	lq := &loadedQuery{Label: "people (built-in)", Descriptor: benchQuery()}
	if opts.Query.file != "" || opts.Query.expr != "" {
		if lq, err = opts.Query.load(); err != nil {
			return err
		}
	}

	var recs []interface{}
	if spec := opts.Records.spec(cfg.Records); spec.Path != "" {
		if recs, _, err = loadRecords(ctx, spec); err != nil {
			return err
		}
	} else {
		if opts.Generate <= 0 {
			return cli.NewConfigError("generate", "must be positive without --records")
		}
		recs = generatePeople(opts.Generate)
	}

	report := benchReport{Query: lq.Label, Records: len(recs), Iterations: opts.Iterations}
	progress.Start(int64(2 * opts.Iterations))
	done := int64(0)

	for _, optimize := range []bool{true, false} {
		c, err := newCompiler(cfg, boolPtr(optimize), logger)
		if err != nil {
			return err
		}
		q, err := c.Compile(lq.Descriptor)
		if err != nil {
			progress.Error(err)
			return fmt.Errorf("query %s: %w", lq.Label, err)
		}
		pred := q.Predicate()

		matched := 0
		start := time.Now()
		for i := 0; i < opts.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				progress.Error(err)
				return err
			}
			matched = filter.Count(recs, pred)
			done++
			progress.Update(done)
		}
		total := time.Since(start)

		res := strategyResult{
			Strategy: q.Strategy(),
			Tests:    len(q.Plan().Tests()),
			Matched:  matched,
			Total:    total,
			PerPass:  total / time.Duration(opts.Iterations),
		}
		if len(recs) > 0 {
			res.PerRecord = float64(total.Nanoseconds()) / float64(opts.Iterations*len(recs))
		}
		report.Results = append(report.Results, res)
	}
	progress.Finish()

	cost, decl := report.Results[0], report.Results[1]
	if cost.Matched != decl.Matched {
		return fmt.Errorf("strategies disagree: cost order matched %d, declaration order matched %d", cost.Matched, decl.Matched)
	}
	if cost.Total > 0 {
		report.Speedup = float64(decl.Total) / float64(cost.Total)
	}

	return cli.NewFormatter(outFormat).FormatTo(out, report)
}

// benchQuery is a two-branch people query with string, range and equality
// tests declared in an unfavourable order.
func benchQuery() interface{} {
	return []interface{}{
		descriptor.D{
			{Key: "name.last", Value: descriptor.D{{Key: "beginsWith", Value: "P"}, {Key: "endsWith", Value: "son"}}},
			{Key: "age", Value: descriptor.D{{Key: "greaterThanOrEqualTo", Value: 21}, {Key: "lessThan", Value: 68}}},
			{Key: "gender", Value: descriptor.D{{Key: "equals", Value: "Female"}}},
			{Key: "occupation", Value: descriptor.D{{Key: "equals", Value: "Rehabilitation Services Director"}}},
		},
		descriptor.D{
			{Key: "name.first", Value: descriptor.D{{Key: "equals", Value: "Ian"}}},
			{Key: "age", Value: descriptor.D{{Key: "greaterThanOrEqualTo", Value: 21}, {Key: "lessThan", Value: 90}}},
			{Key: "gender", Value: descriptor.D{{Key: "equals", Value: "Male"}}},
			{Key: "occupation", Value: descriptor.D{{Key: "contains", Value: "Business"}}},
		},
	}
}

// generatePeople returns n deterministic people records.
func generatePeople(n int) []interface{} {
	rng := rand.New(rand.NewSource(42))
	firsts := []string{"Ian", "Ada", "Alan", "Grace", "Ivy", "Linus", "Barbara"}
	lasts := []string{"Peterson", "Pearson", "Smith", "Parson", "Lovelace", "Hopper", "Liskov"}
	occupations := []string{"Rehabilitation Services Director", "Business Analyst", "Software Engineer", "Director", "Business Owner", "Nurse"}
	genders := []string{"Female", "Male"}

	recs := make([]interface{}, n)
	for i := range recs {
		name := map[string]interface{}{"first": firsts[rng.Intn(len(firsts))]}
		if rng.Intn(10) > 0 {
			name["last"] = lasts[rng.Intn(len(lasts))]
		}
		r := map[string]interface{}{
			"id":         i + 1,
			"name":       name,
			"gender":     genders[rng.Intn(len(genders))],
			"occupation": occupations[rng.Intn(len(occupations))],
		}
		if rng.Intn(20) > 0 {
			r["age"] = 10 + rng.Intn(85)
		}
		recs[i] = r
	}
	return recs
}
