package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/descriptor"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate configuration and query files",
	Long: `Validate the configuration and compile every query in the given query
files or directories. Without arguments the configured catalog path is used.

Compile errors report the descriptor location, the offending key and, for
misspelled comparators, the closest known name.

Examples:
  # Validate the configured catalog
  pursuit validate --config pursuit.yaml

  # Validate specific files and directories
  pursuit validate queries/ extra/people.yaml

  # JSON output for CI
  pursuit validate queries/ --format json`,
	RunE: runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format: text, json")
}

type queryResult struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
	Tests    int    `json:"tests,omitempty"`
	Error    string `json:"error,omitempty"`
}

type fileResult struct {
	File    string        `json:"file"`
	Queries []queryResult `json:"queries,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type validateReport struct {
	Files   []fileResult `json:"files"`
	Total   int          `json:"total"`
	Invalid int          `json:"invalid"`
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return runValidate(cfg, args, validateFlags.format, cmd.OutOrStdout(), logger)
}

// runValidate compiles every query under paths and writes a report. The
// returned error wraps the first failure, so a compile error maps to its
// exit code.
func runValidate(cfg *config.Config, paths []string, format string, out io.Writer, logger *slog.Logger) error {
	outFormat, err := cli.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	if outFormat == cli.FormatCSV {
		return cli.NewConfigError("format", "validate supports text and json")
	}

	if len(paths) == 0 {
		paths = []string{cfg.Catalog.Path}
	}

	files, err := expandQueryPaths(paths)
	if err != nil {
		return err
	}

	c, err := newCompiler(cfg, nil, logger)
	if err != nil {
		return err
	}

	var (
		report   validateReport
		firstErr error
	)
	fail := func(err error) {
		report.Invalid++
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, path := range files {
		fr := fileResult{File: path}
		file, err := descriptor.LoadFile(path)
		if err != nil {
			fr.Error = err.Error()
			report.Files = append(report.Files, fr)
			fail(err)
			continue
		}

		for _, nq := range file.Queries {
			report.Total++
			qr := queryResult{Name: nq.Name}
			q, err := c.Compile(nq.Match)
			if err != nil {
				qr.Error = err.Error()
				fail(fmt.Errorf("%s: query %q: %w", path, nq.Name, err))
			} else {
				qr.Strategy = q.Strategy()
				qr.Tests = len(q.Plan().Tests())
			}
			fr.Queries = append(fr.Queries, qr)
		}
		report.Files = append(report.Files, fr)
	}

	if outFormat == cli.FormatJSON {
		if err := cli.NewFormatter(outFormat).FormatTo(out, report); err != nil {
			return err
		}
	} else {
		writeValidateReport(out, report)
	}

	if firstErr != nil {
		return fmt.Errorf("%d invalid: %w", report.Invalid, firstErr)
	}
	return nil
}

func writeValidateReport(w io.Writer, report validateReport) {
	fmt.Fprintln(w, "✓ Configuration valid")
	for _, fr := range report.Files {
		fmt.Fprintf(w, "\nValidating %s...\n", fr.File)
		if fr.Error != "" {
			fmt.Fprintf(w, "✗ Error: %s\n", fr.Error)
			continue
		}
		for _, qr := range fr.Queries {
			if qr.Error != "" {
				fmt.Fprintf(w, "✗ %s: %s\n", qr.Name, qr.Error)
				continue
			}
			fmt.Fprintf(w, "✓ %s (%d tests, %s order)\n", qr.Name, qr.Tests, qr.Strategy)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d file(s), %d query(ies), %d invalid\n", len(report.Files), report.Total, report.Invalid)
}

// expandQueryPaths replaces directories with the query files they contain.
func expandQueryPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, cli.NewConfigError("path", err.Error())
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		list, err := descriptor.ListQueryFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, list...)
	}
	return files, nil
}
