package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/pursuit/pkg/cli"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/config"
	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/dictionary"
	"mercator-hq/pursuit/pkg/records"
	"mercator-hq/pursuit/pkg/telemetry/logging"
)

// loadConfig loads cfgFile, or the defaults when it is empty, and applies
// PURSUIT_* environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, cli.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to w, never to the result
// stream.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    cfg.Telemetry.Logging.Redact,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// newCompiler creates a compiler from the compiler section. optimize
// overrides the configured optimizer setting when non-nil.
func newCompiler(cfg *config.Config, optimize *bool, logger *slog.Logger) (*compiler.Compiler, error) {
	enabled := cfg.Compiler.OptimizeEnabled()
	if optimize != nil {
		enabled = *optimize
	}
	return compiler.New(compiler.Config{
		Dictionary:          dictionary.Default(),
		NegationKey:         cfg.Compiler.EffectiveNegationKey(),
		DisableOptimization: !enabled,
		PathSeparator:       cfg.Compiler.PathSeparator,
		Logger:              logger,
	})
}

// queryFlags selects a query descriptor from a file or an inline expression.
type queryFlags struct {
	file string
	expr string
	name string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.file, "query", "q", "", "query descriptor or query file (JSON or YAML)")
	cmd.Flags().StringVarP(&q.expr, "expr", "e", "", "inline query descriptor (JSON or YAML flow syntax)")
	cmd.Flags().StringVarP(&q.name, "name", "n", "", "query name when --query is a query file")
}

// loadedQuery is a descriptor and a label for messages.
type loadedQuery struct {
	Label      string
	Descriptor interface{}
}

// load returns the selected descriptor. A file with a top-level "queries"
// list is a query file and --name picks one of its queries; any other file
// is a single descriptor.
func (q *queryFlags) load() (*loadedQuery, error) {
	switch {
	case q.file != "" && q.expr != "":
		return nil, cli.NewConfigError("query", "--query and --expr are mutually exclusive")
	case q.expr != "":
		if q.name != "" {
			return nil, cli.NewConfigError("name", "--name requires --query")
		}
		desc, err := descriptor.ParseYAML([]byte(q.expr))
		if err != nil {
			return nil, fmt.Errorf("invalid --expr: %w", err)
		}
		return &loadedQuery{Label: "expr", Descriptor: desc}, nil
	case q.file == "":
		return nil, cli.NewConfigError("query", "one of --query or --expr is required")
	}

	data, err := os.ReadFile(q.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read query: %w", err)
	}
	format := descriptor.FormatFromPath(q.file)
	root, err := descriptor.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.file, err)
	}

	if !isQueryFile(root) {
		if q.name != "" {
			return nil, cli.NewConfigError("name", fmt.Sprintf("%s is a single descriptor, not a query file", q.file))
		}
		return &loadedQuery{Label: q.file, Descriptor: root}, nil
	}

	file, err := descriptor.ParseFile(data, format, q.file)
	if err != nil {
		return nil, err
	}
	return selectQuery(file, q.name)
}

func isQueryFile(root interface{}) bool {
	doc, ok := root.(descriptor.D)
	if !ok || len(doc) != 1 || doc[0].Key != "queries" {
		return false
	}
	_, ok = doc[0].Value.([]interface{})
	return ok
}

func selectQuery(file *descriptor.File, name string) (*loadedQuery, error) {
	if name == "" {
		if len(file.Queries) != 1 {
			names := make([]string, len(file.Queries))
			for i, nq := range file.Queries {
				names[i] = nq.Name
			}
			return nil, cli.NewConfigError("name", fmt.Sprintf("%s holds %d queries, pick one with --name (%s)",
				file.Path, len(file.Queries), strings.Join(names, ", ")))
		}
		nq := file.Queries[0]
		return &loadedQuery{Label: nq.Name, Descriptor: nq.Match}, nil
	}

	for _, nq := range file.Queries {
		if nq.Name == name {
			return &loadedQuery{Label: nq.Name, Descriptor: nq.Match}, nil
		}
	}
	return nil, cli.NewConfigError("name", fmt.Sprintf("query %q not found in %s", name, file.Path))
}

// recordFlags selects a record source, falling back to the configured one.
type recordFlags struct {
	path   string
	format string
	table  string
	sql    string
	driver string
}

func (r *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.path, "records", "r", "", "record file (.json, .jsonl, .yaml) or SQLite database")
	cmd.Flags().StringVar(&r.format, "records-format", "", "record file format: json, jsonl, yaml (default: from extension)")
	cmd.Flags().StringVar(&r.table, "table", "", "SQLite table to read")
	cmd.Flags().StringVar(&r.sql, "sql", "", "SQL query to read records with")
	cmd.Flags().StringVar(&r.driver, "driver", "", "SQLite driver: sqlite or sqlite3")
}

// spec returns the record source for the flags, or def when no path is set.
func (r *recordFlags) spec(def records.Spec) records.Spec {
	if r.path == "" {
		return def
	}
	spec := records.Spec{Type: records.TypeFile, Path: r.path, Format: r.format}
	if r.table != "" || r.sql != "" {
		spec = records.Spec{
			Type:   records.TypeSQLite,
			Path:   r.path,
			Driver: r.driver,
			Table:  r.table,
			Query:  r.sql,
		}
	}
	return spec
}

// loadRecords opens and reads a record source.
func loadRecords(ctx context.Context, spec records.Spec) ([]interface{}, string, error) {
	if spec.Path == "" {
		return nil, "", cli.NewConfigError("records", "no record source: pass --records or set records.path")
	}
	src, err := records.Open(spec)
	if err != nil {
		return nil, "", err
	}
	recs, err := src.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	return recs, src.Name(), nil
}

func boolPtr(b bool) *bool { return &b }
