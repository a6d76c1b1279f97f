package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"mercator-hq/pursuit/pkg/descriptor"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output, one row per record.
	FormatCSV OutputFormat = "csv"
)

// ErrUnsupportedData is returned when a formatter cannot render a value.
var ErrUnsupportedData = errors.New("unsupported data for output format")

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unknown output format %q (must be text, json or csv)", s))
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter writes Stringers with String, record collections as one
// compact JSON document per line, and everything else with %v.
type TextFormatter struct{}

// FormatTo writes data to w in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case fmt.Stringer:
		_, err := io.WriteString(w, ensureNewline(v.String()))
		return err
	case []interface{}:
		enc := json.NewEncoder(w)
		for _, r := range v {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	if v, ok := data.([]interface{}); ok && v == nil {
		data = []interface{}{}
	}
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter writes a record collection as CSV. Columns are the sorted
// union of top-level keys unless Headers is set. Nested values are written as
// JSON and missing fields as empty cells.
type CSVFormatter struct {
	Headers []string
}

// FormatTo writes data to w in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	recs, ok := data.([]interface{})
	if !ok {
		return fmt.Errorf("%w: csv requires a record collection, got %T", ErrUnsupportedData, data)
	}

	rows := make([]map[string]interface{}, len(recs))
	for i, r := range recs {
		row, ok := asRow(r)
		if !ok {
			return fmt.Errorf("%w: csv record %d is a %T, not an object", ErrUnsupportedData, i, r)
		}
		rows[i] = row
	}

	headers := f.Headers
	if len(headers) == 0 {
		headers = columns(rows)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(headers); err != nil {
		return err
	}
	cells := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			cell, err := formatCell(row, h)
			if err != nil {
				return err
			}
			cells[i] = cell
		}
		if err := csvWriter.Write(cells); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func asRow(r interface{}) (map[string]interface{}, bool) {
	switch v := r.(type) {
	case map[string]interface{}:
		return v, true
	case descriptor.D:
		return v.Map(), true
	default:
		return nil, false
	}
}

func columns(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func formatCell(row map[string]interface{}, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", key, err)
		}
		return string(b), nil
	}
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
