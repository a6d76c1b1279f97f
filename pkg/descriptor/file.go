package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NamedQuery is a query descriptor loaded from a query file.
type NamedQuery struct {
	// Name identifies the query within a catalog.
	Name string

	// Description is free-form documentation.
	Description string

	// Match is the query descriptor (a D or a sequence).
	Match interface{}

	// Source is the file the query was loaded from.
	Source string
}

// File is a parsed query file.
//
// Query files look like:
//
//	queries:
//	  - name: adult-women
//	    description: Women of working age
//	    match:
//	      age: {greaterThanOrEqualTo: 21, lessThan: 68}
//	      gender: {equals: Female}
type File struct {
	Path    string
	Queries []NamedQuery
}

// LoadFile reads and parses a query file. The format is inferred from the
// file extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file %q: %w", path, err)
	}
	return ParseFile(data, FormatFromPath(path), path)
}

// ParseFile parses query file contents. source is recorded on every query.
func ParseFile(data []byte, format Format, source string) (*File, error) {
	root, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("query file %q: %w", source, err)
	}

	doc, ok := root.(D)
	if !ok {
		return nil, fmt.Errorf("query file %q: top level must be a mapping", source)
	}

	raw, ok := doc.Get("queries")
	if !ok {
		return nil, fmt.Errorf("query file %q: missing \"queries\" list", source)
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("query file %q: \"queries\" must be a list", source)
	}

	file := &File{Path: source, Queries: make([]NamedQuery, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		entry, ok := item.(D)
		if !ok {
			return nil, fmt.Errorf("query file %q: queries[%d] must be a mapping", source, i)
		}

		q := NamedQuery{Source: source}
		for _, e := range entry {
			switch e.Key {
			case "name":
				q.Name, _ = e.Value.(string)
			case "description":
				q.Description, _ = e.Value.(string)
			case "match":
				q.Match = e.Value
			default:
				return nil, fmt.Errorf("query file %q: queries[%d]: unknown field %q", source, i, e.Key)
			}
		}

		if strings.TrimSpace(q.Name) == "" {
			return nil, fmt.Errorf("query file %q: queries[%d]: name is required", source, i)
		}
		if q.Match == nil {
			return nil, fmt.Errorf("query file %q: query %q: match is required", source, q.Name)
		}
		if _, dup := seen[q.Name]; dup {
			return nil, fmt.Errorf("query file %q: duplicate query name %q", source, q.Name)
		}
		seen[q.Name] = struct{}{}

		file.Queries = append(file.Queries, q)
	}

	return file, nil
}

// LoadDir loads every .yaml, .yml and .json file directly under dir, in
// lexical order. Hidden files are skipped.
func LoadDir(dir string) ([]*File, error) {
	paths, err := ListQueryFiles(dir)
	if err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ListQueryFiles returns the query files directly under dir in lexical order.
func ListQueryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list query directory %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if IsQueryFile(name) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// IsQueryFile reports whether a file name has a query file extension.
func IsQueryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
