package records

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// maxLineSize bounds a single JSON lines record.
const maxLineSize = 16 * 1024 * 1024

// FileSource reads records from a JSON, JSON lines or YAML file.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a file source. An empty format is inferred from the
// file extension.
func NewFileSource(path string, format Format) (*FileSource, error) {
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	return &FileSource{path: path, format: format}, nil
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Format returns the file format.
func (s *FileSource) Format() Format { return s.format }

// Load reads every record in the file.
func (s *FileSource) Load(ctx context.Context) ([]interface{}, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	records, err := Decode(ctx, f, s.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return records, nil
}

// Decode reads records in the given format from r.
func Decode(ctx context.Context, r io.Reader, format Format) ([]interface{}, error) {
	switch format {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	case FormatJSONL:
		return decodeJSONLines(ctx, r)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeJSON(data []byte) ([]interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON records: %w", err)
	}
	return asCollection(v), nil
}

func decodeJSONLines(ctx context.Context, r io.Reader) ([]interface{}, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var out []interface{}
	line := 0
	for scanner.Scan() {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var v interface{}
		if err := json.Unmarshal(text, &v); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON record: %w", line, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSON lines: %w", err)
	}
	return out, nil
}

func decodeYAML(data []byte) ([]interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML records: %w", err)
	}
	return asCollection(v), nil
}

// asCollection treats a top-level sequence as the collection and any other
// document as a single record.
func asCollection(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	default:
		return []interface{}{t}
	}
}
