// Package records loads collections of records for filtering.
//
// Records are returned as generic values: JSON and YAML documents decode to
// map[string]interface{}, []interface{} and scalars; SQLite rows decode to
// map[string]interface{} keyed by column name with NULL as nil.
package records

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Source loads a collection of records.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Load reads every record.
	Load(ctx context.Context) ([]interface{}, error)
}

// Format is the encoding of a record file.
type Format string

const (
	// FormatJSON is a JSON array of records, or a single JSON record.
	FormatJSON Format = "json"
	// FormatJSONL is one JSON record per line.
	FormatJSONL Format = "jsonl"
	// FormatYAML is a YAML sequence of records, or a single YAML record.
	FormatYAML Format = "yaml"
)

var (
	// ErrUnknownFormat is returned for unsupported record file formats.
	ErrUnknownFormat = errors.New("unknown record format")

	// ErrUnknownSource is returned for unsupported source types.
	ErrUnknownSource = errors.New("unknown record source type")
)

// FormatFromPath infers a record format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "ndjson":
		return FormatJSONL, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Source types accepted by Open.
const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// Spec describes a record source.
type Spec struct {
	// Type is "file" or "sqlite". Empty means "file".
	Type string `yaml:"type"`

	// Path is the record file for file sources, or the database file for
	// SQLite sources.
	Path string `yaml:"path"`

	// Format overrides the format inferred from Path.
	Format string `yaml:"format"`

	// Driver selects the SQLite driver: "sqlite" (pure Go, default) or
	// "sqlite3" (cgo).
	Driver string `yaml:"driver"`

	// Table is the SQLite table to read.
	Table string `yaml:"table"`

	// Query is a SQL query to run instead of reading Table.
	Query string `yaml:"query"`
}

// Open creates the source described by spec.
func Open(spec Spec) (Source, error) {
	switch spec.Type {
	case "", TypeFile:
		if spec.Path == "" {
			return nil, errors.New("file source requires a path")
		}
		format := Format("")
		if spec.Format != "" {
			f, err := ParseFormat(spec.Format)
			if err != nil {
				return nil, err
			}
			format = f
		}
		return NewFileSource(spec.Path, format)

	case TypeSQLite:
		return NewSQLiteSource(SQLiteConfig{
			Path:   spec.Path,
			Driver: spec.Driver,
			Table:  spec.Table,
			Query:  spec.Query,
		})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, spec.Type)
	}
}
