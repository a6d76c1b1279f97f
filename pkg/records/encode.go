package records

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Encode writes records to w in the given format.
func Encode(w io.Writer, records []interface{}, format Format) error {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []interface{}{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	case FormatJSONL:
		enc := json.NewEncoder(w)
		for i, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil

	case FormatYAML:
		if records == nil {
			records = []interface{}{}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile writes records to path, inferring the format from its extension.
func WriteFile(path string, records []interface{}) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, records, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
