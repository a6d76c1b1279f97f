package records

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFileSource_Load(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []interface{}
	}{
		{
			name:    "json array",
			file:    "people.json",
			content: `[{"name": "Ada", "age": 36}, {"name": "Ian", "age": null}]`,
			want: []interface{}{
				map[string]interface{}{"name": "Ada", "age": float64(36)},
				map[string]interface{}{"name": "Ian", "age": nil},
			},
		},
		{
			name:    "single json record",
			file:    "one.json",
			content: `{"name": "Ada"}`,
			want:    []interface{}{map[string]interface{}{"name": "Ada"}},
		},
		{
			name:    "json lines with blank line",
			file:    "people.jsonl",
			content: "{\"name\": \"Ada\"}\n\n{\"name\": \"Ian\"}\n",
			want: []interface{}{
				map[string]interface{}{"name": "Ada"},
				map[string]interface{}{"name": "Ian"},
			},
		},
		{
			name:    "yaml sequence",
			file:    "people.yaml",
			content: "- name: Ada\n  age: 36\n  tags: [a, b]\n- name: Ian\n",
			want: []interface{}{
				map[string]interface{}{"name": "Ada", "age": 36, "tags": []interface{}{"a", "b"}},
				map[string]interface{}{"name": "Ian"},
			},
		},
		{
			name:    "empty yaml",
			file:    "empty.yml",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFileSource(writeFile(t, tt.file, tt.content), "")
			if err != nil {
				t.Fatalf("NewFileSource() error = %v", err)
			}
			got, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFileSource_Errors(t *testing.T) {
	if _, err := NewFileSource("records.csv", ""); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("NewFileSource(.csv) error = %v, want ErrUnknownFormat", err)
	}

	src, err := NewFileSource(writeFile(t, "bad.jsonl", "{\"a\": 1}\n{oops}\n"), "")
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Load() error = %v, want line 2 error", err)
	}

	missing, _ := NewFileSource(filepath.Join(t.TempDir(), "missing.json"), "")
	if _, err := missing.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":   FormatJSON,
		"JSONL":  FormatJSONL,
		"ndjson": FormatJSONL,
		"yml":    FormatYAML,
	}
	for name, want := range tests {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q", name, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpen(t *testing.T) {
	path := writeFile(t, "data.txt", `[{"a": 1}]`)

	src, err := Open(Spec{Path: path, Format: "json"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := src.Load(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("Load() = %v, %v", got, err)
	}

	if _, err := Open(Spec{Type: "kafka"}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Open(kafka) error = %v, want ErrUnknownSource", err)
	}
	if _, err := Open(Spec{Type: TypeSQLite, Path: "x.db", Table: "drop table;"}); err == nil {
		t.Error("Open() accepted an invalid table name")
	}
}

func seedDatabase(t *testing.T, driver string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")

	db, err := OpenDB(driver, path, 0)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE people (name TEXT, age INTEGER, email TEXT)`); err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED") || strings.Contains(err.Error(), "cgo") {
			t.Skipf("driver %s unavailable: %v", driver, err)
		}
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO people VALUES ('Ada', 36, 'ada@example.com'), ('Ian', 17, NULL)`); err != nil {
		t.Fatalf("failed to insert rows: %v", err)
	}
	return path
}

func TestSQLiteSource_Load(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			path := seedDatabase(t, driver)

			src, err := NewSQLiteSource(SQLiteConfig{Path: path, Driver: driver, Table: "people"})
			if err != nil {
				t.Fatalf("NewSQLiteSource() error = %v", err)
			}
			got, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			want := []interface{}{
				map[string]interface{}{"name": "Ada", "age": int64(36), "email": "ada@example.com"},
				map[string]interface{}{"name": "Ian", "age": int64(17), "email": nil},
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load() = %#v, want %#v", got, want)
			}

			query, err := NewSQLiteSource(SQLiteConfig{Path: path, Driver: driver, Query: "SELECT name FROM people WHERE age > 18"})
			if err != nil {
				t.Fatalf("NewSQLiteSource() error = %v", err)
			}
			got, err = query.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != 1 || got[0].(map[string]interface{})["name"] != "Ada" {
				t.Errorf("query Load() = %v, want Ada only", got)
			}
		})
	}
}

func TestNewSQLiteSource_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLiteConfig
	}{
		{name: "no path", cfg: SQLiteConfig{Table: "people"}},
		{name: "bad driver", cfg: SQLiteConfig{Path: "x.db", Driver: "postgres", Table: "people"}},
		{name: "no table or query", cfg: SQLiteConfig{Path: "x.db"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSQLiteSource(tt.cfg); err == nil {
				t.Error("NewSQLiteSource() error = nil, want error")
			}
		})
	}
}
