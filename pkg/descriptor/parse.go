package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a document encoding.
type Format string

const (
	// FormatJSON is a JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// ErrEmptyDocument is returned when a document holds no value.
var ErrEmptyDocument = errors.New("empty document")

// FormatFromPath infers the format from a file extension. Unknown extensions
// are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses a format name ("json", "yaml" or "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be json or yaml)", s)
	}
}

// Parse decodes a single document. Mappings become D values with their source
// key order, sequences become []interface{}.
func Parse(data []byte, format Format) (interface{}, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ParseJSON decodes a JSON document keeping object key order.
// Numbers decode as float64.
func ParseJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeJSONValue(dec)
	if err == io.EOF {
		return nil, ErrEmptyDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to parse JSON: unexpected data after top-level value")
	}
	return v, nil
}

// DecodeJSON reads the next JSON value from dec keeping object key order.
// It returns io.EOF when the stream is exhausted.
func DecodeJSON(dec *json.Decoder) (interface{}, error) {
	return decodeJSONValue(dec)
}

func decodeJSONValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		doc := D{}
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %T", keyTok)
			}
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("duplicate key %q", key)
			}
			seen[key] = struct{}{}

			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			doc = append(doc, E{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return doc, nil

	case '[':
		seq := []interface{}{}
		for dec.More() {
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return seq, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// ParseYAML decodes a YAML document keeping mapping key order. Scalars keep
// their YAML types (int, float64, bool, string, nil).
func ParseYAML(data []byte) (interface{}, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if node.Kind == 0 || (node.Kind == yaml.DocumentNode && len(node.Content) == 0) {
		return nil, ErrEmptyDocument
	}
	return FromYAMLNode(&node)
}

// FromYAMLNode converts a decoded YAML node into descriptor values.
func FromYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return FromYAMLNode(node.Content[0])

	case yaml.MappingNode:
		doc := make(D, 0, len(node.Content)/2)
		seen := make(map[string]struct{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", keyNode.Line)
			}
			if _, dup := seen[keyNode.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, keyNode.Value)
			}
			seen[keyNode.Value] = struct{}{}

			val, err := FromYAMLNode(valNode)
			if err != nil {
				return nil, err
			}
			doc = append(doc, E{Key: keyNode.Value, Value: val})
		}
		return doc, nil

	case yaml.SequenceNode:
		seq := make([]interface{}, 0, len(node.Content))
		for _, child := range node.Content {
			val, err := FromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil

	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil

	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", node.Line)
		}
		return FromYAMLNode(node.Alias)

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}
