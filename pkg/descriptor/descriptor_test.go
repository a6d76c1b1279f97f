package descriptor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseJSON_PreservesKeyOrder(t *testing.T) {
	data := []byte(`{"zeta": {"lessThan": 5, "greaterThan": 1}, "alpha": {"equals": "x"}}`)

	v, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	doc, ok := v.(D)
	if !ok {
		t.Fatalf("ParseJSON() returned %T, want D", v)
	}
	if got, want := doc.Keys(), []string{"zeta", "alpha"}; !reflect.DeepEqual(got, want) {
		t.Errorf("top-level keys = %v, want %v", got, want)
	}

	inner, _ := doc.Get("zeta")
	if got, want := inner.(D).Keys(), []string{"lessThan", "greaterThan"}; !reflect.DeepEqual(got, want) {
		t.Errorf("nested keys = %v, want %v", got, want)
	}

	n, _ := inner.(D).Get("lessThan")
	if n != float64(5) {
		t.Errorf("number decoded as %T(%v), want float64(5)", n, n)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "duplicate key", data: `{"a": 1, "a": 2}`},
		{name: "trailing data", data: `{"a": 1} {"b": 2}`},
		{name: "truncated", data: `{"a": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJSON([]byte(tt.data)); err == nil {
				t.Errorf("ParseJSON(%q) expected error", tt.data)
			}
		})
	}

	if _, err := ParseJSON([]byte("   ")); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("ParseJSON(blank) error = %v, want ErrEmptyDocument", err)
	}
}

func TestParseYAML_OrderAndScalars(t *testing.T) {
	data := []byte(`
- name:
    last:
      endsWith: son
      beginsWith: P
  age: {greaterThanOrEqualTo: 21, lessThan: 68}
  active: {equals: true}
  nickname: {equals: null}
- gender: {equals: Male}
`)

	v, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	seq, ok := v.([]interface{})
	if !ok || len(seq) != 2 {
		t.Fatalf("ParseYAML() = %#v, want two-element sequence", v)
	}

	first := seq[0].(D)
	if got, want := first.Keys(), []string{"name", "age", "active", "nickname"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}

	name, _ := first.Get("name")
	last, _ := name.(D).Get("last")
	if got, want := last.(D).Keys(), []string{"endsWith", "beginsWith"}; !reflect.DeepEqual(got, want) {
		t.Errorf("nested keys = %v, want %v", got, want)
	}

	age, _ := first.Get("age")
	gte, _ := age.(D).Get("greaterThanOrEqualTo")
	if gte != 21 {
		t.Errorf("int scalar = %T(%v), want int(21)", gte, gte)
	}

	active, _ := first.Get("active")
	if eq, _ := active.(D).Get("equals"); eq != true {
		t.Errorf("bool scalar = %v, want true", eq)
	}

	nickname, _ := first.Get("nickname")
	if eq, ok := nickname.(D).Get("equals"); !ok || eq != nil {
		t.Errorf("null scalar = %v (present %v), want nil", eq, ok)
	}
}

func TestParseYAML_DuplicateKey(t *testing.T) {
	_, err := ParseYAML([]byte("a: 1\na: 2\n"))
	if err == nil {
		t.Fatal("ParseYAML() expected duplicate key error")
	}
}

func TestEntries(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		wantKeys []string
		wantOK   bool
	}{
		{name: "ordered document", value: D{{"b", 1}, {"a", 2}}, wantKeys: []string{"b", "a"}, wantOK: true},
		{name: "plain map sorted", value: map[string]interface{}{"b": 1, "a": 2, "c": 3}, wantKeys: []string{"a", "b", "c"}, wantOK: true},
		{name: "typed map sorted", value: map[string]int{"y": 1, "x": 2}, wantKeys: []string{"x", "y"}, wantOK: true},
		{name: "int keyed map", value: map[int]string{1: "a"}, wantOK: false},
		{name: "scalar", value: 5, wantOK: false},
		{name: "nil", value: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, ok := Entries(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("Entries() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			keys := make([]string, len(entries))
			for i, e := range entries {
				keys[i] = e.Key
			}
			if !reflect.DeepEqual(keys, tt.wantKeys) {
				t.Errorf("Entries() keys = %v, want %v", keys, tt.wantKeys)
			}
		})
	}
}

func TestSequence(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantLen int
		wantOK  bool
	}{
		{name: "interface slice", value: []interface{}{1, 2}, wantLen: 2, wantOK: true},
		{name: "document slice", value: []D{{}, {}, {}}, wantLen: 3, wantOK: true},
		{name: "typed slice", value: []string{"a"}, wantLen: 1, wantOK: true},
		{name: "bytes", value: []byte("ab"), wantOK: false},
		{name: "string", value: "ab", wantOK: false},
		{name: "document", value: D{}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ok := Sequence(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("Sequence() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && len(seq) != tt.wantLen {
				t.Errorf("Sequence() len = %d, want %d", len(seq), tt.wantLen)
			}
		})
	}
}

func TestIsNullish(t *testing.T) {
	var nilPtr *int
	zero := 0

	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{name: "nil", value: nil, want: true},
		{name: "undefined", value: Undefined, want: true},
		{name: "nil pointer", value: nilPtr, want: true},
		{name: "zero", value: 0, want: false},
		{name: "empty string", value: "", want: false},
		{name: "pointer to zero", value: &zero, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNullish(tt.value); got != tt.want {
				t.Errorf("IsNullish(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDGetAbsentIsUndefined(t *testing.T) {
	v, ok := D{{"a", nil}}.Get("b")
	if ok || !IsUndefined(v) {
		t.Errorf("Get(absent) = (%v, %v), want (undefined, false)", v, ok)
	}

	v, ok = D{{"a", nil}}.Get("a")
	if !ok || v != nil {
		t.Errorf("Get(null) = (%v, %v), want (nil, true)", v, ok)
	}
}

func TestD_MarshalJSONKeepsOrder(t *testing.T) {
	const doc = `{"z":1,"a":{"y":[1,{"b":true}],"x":null},"m":"s"}`
	v, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != doc {
		t.Errorf("Marshal() = %s, want %s", out, doc)
	}

	out, err = json.Marshal(D{{"missing", Undefined}})
	if err != nil || string(out) != `{"missing":null}` {
		t.Errorf("Marshal(undefined) = %s, %v", out, err)
	}
}

func TestParseFile(t *testing.T) {
	data := []byte(`
queries:
  - name: adult-women
    description: Women of working age
    match:
      age: {greaterThanOrEqualTo: 21, lessThan: 68}
      gender: {equals: Female}
  - name: either
    match:
      - gender: {equals: Male}
      - occupation: {contains: Business}
`)

	f, err := ParseFile(data, FormatYAML, "queries.yaml")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(f.Queries) != 2 {
		t.Fatalf("ParseFile() loaded %d queries, want 2", len(f.Queries))
	}
	if f.Queries[0].Name != "adult-women" || f.Queries[0].Description == "" {
		t.Errorf("first query = %+v", f.Queries[0])
	}
	if _, ok := f.Queries[1].Match.([]interface{}); !ok {
		t.Errorf("second query match = %T, want sequence", f.Queries[1].Match)
	}
	if f.Queries[1].Source != "queries.yaml" {
		t.Errorf("Source = %q, want queries.yaml", f.Queries[1].Source)
	}
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "missing queries", data: "other: 1\n"},
		{name: "queries not a list", data: "queries: 1\n"},
		{name: "missing name", data: "queries:\n  - match: {a: {equals: 1}}\n"},
		{name: "missing match", data: "queries:\n  - name: q\n"},
		{name: "unknown field", data: "queries:\n  - name: q\n    match: {}\n    extra: 1\n"},
		{name: "duplicate name", data: "queries:\n  - name: q\n    match: {}\n  - name: q\n    match: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFile([]byte(tt.data), FormatYAML, "test.yaml"); err == nil {
				t.Errorf("ParseFile() expected error")
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":      "queries:\n  - name: b\n    match: {x: {equals: 1}}\n",
		"a.json":      `{"queries": [{"name": "a", "match": {"x": {"equals": 2}}}]}`,
		".hidden.yml": "queries:\n  - name: hidden\n    match: {}\n",
		"notes.txt":   "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadDir() loaded %d files, want 2", len(loaded))
	}
	if loaded[0].Queries[0].Name != "a" || loaded[1].Queries[0].Name != "b" {
		t.Errorf("LoadDir() order = %s, %s; want a, b", loaded[0].Queries[0].Name, loaded[1].Queries[0].Name)
	}
}
