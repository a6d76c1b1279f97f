package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/config"
)

var explainFlags struct {
	query      queryFlags
	noOptimize bool
	compare    bool
	format     string
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show the evaluation plan of a query",
	Long: `Compile a query descriptor and print its evaluation plan.

The plan lists the tests in the order they run, with the estimated cost and
pass probability the optimizer used to order them.

Examples:
  # Plan for an inline descriptor
  pursuit explain --expr '{"age": {"greaterThan": 20}, "name": {"isSet": true}}'

  # Optimized and declaration-order plans side by side
  pursuit explain --query queries/people.yaml --name adult-women --compare

  # Machine-readable plan
  pursuit explain --query adults.yaml --format json`,
	RunE: runExplainCmd,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainFlags.query.register(explainCmd)
	explainCmd.Flags().BoolVar(&explainFlags.noOptimize, "no-optimize", false, "show the declaration-order plan")
	explainCmd.Flags().BoolVar(&explainFlags.compare, "compare", false, "show both the optimized and the declaration-order plan")
	explainCmd.Flags().StringVarP(&explainFlags.format, "format", "f", "text", "output format: text, json")
}

// explanation is one compiled plan.
type explanation struct {
	Query    string         `json:"query"`
	Strategy string         `json:"strategy"`
	Tests    int            `json:"tests"`
	Plan     *compiler.Plan `json:"plan"`
}

func (e explanation) String() string {
	return fmt.Sprintf("query %s (strategy %s, %d tests)\n%s", e.Query, e.Strategy, e.Tests, e.Plan)
}

func runExplainCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var optimize *bool
	if explainFlags.noOptimize {
		optimize = boolPtr(false)
	}
	return runExplain(cfg, &explainFlags.query, optimize, explainFlags.compare, explainFlags.format, cmd.OutOrStdout(), logger)
}

// runExplain writes the plan of the selected query. With compare set, both
// strategies are written, the configured one first.
func runExplain(cfg *config.Config, qf *queryFlags, optimize *bool, compare bool, format string, out io.Writer, logger *slog.Logger) error {
	outFormat, err := cli.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	if outFormat == cli.FormatCSV {
		return cli.NewConfigError("format", "explain supports text and json")
	}

	lq, err := qf.load()
	if err != nil {
		return err
	}

	enabled := cfg.Compiler.OptimizeEnabled()
	if optimize != nil {
		enabled = *optimize
	}
	settings := []bool{enabled}
	if compare {
		settings = append(settings, !enabled)
	}

	plans := make([]explanation, 0, len(settings))
	for _, s := range settings {
		c, err := newCompiler(cfg, boolPtr(s), logger)
		if err != nil {
			return err
		}
		q, err := c.Compile(lq.Descriptor)
		if err != nil {
			return fmt.Errorf("query %s: %w", lq.Label, err)
		}
		plans = append(plans, explanation{
			Query:    lq.Label,
			Strategy: q.Strategy(),
			Tests:    len(q.Plan().Tests()),
			Plan:     q.Plan(),
		})
	}

	formatter := cli.NewFormatter(outFormat)
	if outFormat == cli.FormatJSON {
		if len(plans) == 1 {
			return formatter.FormatTo(out, plans[0])
		}
		return formatter.FormatTo(out, plans)
	}

	for i, p := range plans {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := formatter.FormatTo(out, p); err != nil {
			return err
		}
	}
	return nil
}
