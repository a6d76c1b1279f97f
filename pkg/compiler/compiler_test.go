package compiler

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"

	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/dictionary"
)

const negationKey = "!not"

func newCompiler(t *testing.T, optimize bool) *Compiler {
	t.Helper()
	c, err := New(Config{
		Dictionary:          dictionary.Default(),
		NegationKey:         negationKey,
		DisableOptimization: !optimize,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func mustCompile(t *testing.T, c *Compiler, desc interface{}) *Query {
	t.Helper()
	q, err := c.Compile(desc)
	if err != nil {
		t.Fatalf("Compile(%v) error = %v", desc, err)
	}
	return q
}

func filterRecords(q *Query, records []interface{}) []interface{} {
	var out []interface{}
	for _, r := range records {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type obj = map[string]interface{}

func TestCompile_Scenario(t *testing.T) {
	record := obj{"age": 25, "gender": "Female", "occupation": "Director"}

	pred, err := Compile(obj{
		"age":    obj{"greaterThanOrEqualTo": 21, "lessThan": 68},
		"gender": obj{"equals": "Female"},
	}, Config{Dictionary: dictionary.Default()})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !pred(record) {
		t.Error("expected record to match")
	}

	pred, err = Compile(obj{"age": obj{"lessThan": 21}}, Config{Dictionary: dictionary.Default()})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if pred(record) {
		t.Error("expected record not to match")
	}
}

func TestHasBeenTouched(t *testing.T) {
	records := []interface{}{
		obj{"bar": 1}, obj{"foo": 9}, obj{"bar": 0},
		obj{"foo": nil}, obj{"foo": descriptor.Undefined}, obj{"foo": ""},
	}

	for _, optimize := range []bool{true, false} {
		c := newCompiler(t, optimize)

		got := filterRecords(mustCompile(t, c, obj{"foo": obj{"hasBeenTouched": true}}), records)
		want := []interface{}{obj{"foo": 9}, obj{"foo": nil}, obj{"foo": descriptor.Undefined}, obj{"foo": ""}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("hasBeenTouched: true matched %v, want %v", got, want)
		}

		got = filterRecords(mustCompile(t, c, obj{"foo": obj{"hasBeenTouched": false}}), records)
		want = []interface{}{obj{"bar": 1}, obj{"bar": 0}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("hasBeenTouched: false matched %v, want %v", got, want)
		}

		scalars := []interface{}{1, 9, 0, nil, descriptor.Undefined, ""}
		got = filterRecords(mustCompile(t, c, obj{"hasBeenTouched": true}), scalars)
		if !reflect.DeepEqual(got, scalars) {
			t.Errorf("root hasBeenTouched: true matched %v, want every record", got)
		}
	}
}

func TestIsSet_Root(t *testing.T) {
	c := newCompiler(t, true)
	values := []interface{}{1, 9, 0, nil, descriptor.Undefined, ""}

	if got, want := filterRecords(mustCompile(t, c, obj{"isSet": true}), values), []interface{}{1, 9, 0, ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("isSet: true matched %v, want %v", got, want)
	}
	if got, want := filterRecords(mustCompile(t, c, obj{"isSet": false}), values), []interface{}{nil, descriptor.Undefined}; !reflect.DeepEqual(got, want) {
		t.Errorf("isSet: false matched %v, want %v", got, want)
	}
}

func TestCompile_NestedPaths(t *testing.T) {
	c := newCompiler(t, true)

	nested := mustCompile(t, c, obj{"name": obj{"last": obj{"beginsWith": "P", "endsWith": "son"}}})
	dotted := mustCompile(t, c, obj{"name.last": obj{"beginsWith": "P", "endsWith": "son"}})

	tests := []struct {
		name   string
		record interface{}
		want   bool
	}{
		{name: "match", record: obj{"name": obj{"last": "Peterson"}}, want: true},
		{name: "ordered document", record: descriptor.D{{Key: "name", Value: descriptor.D{{Key: "last", Value: "Pearson"}}}}, want: true},
		{name: "wrong suffix", record: obj{"name": obj{"last": "Peters"}}, want: false},
		{name: "parent absent", record: obj{"age": 3}, want: false},
		{name: "parent null", record: obj{"name": nil}, want: false},
		{name: "parent scalar", record: obj{"name": "Peterson"}, want: false},
		{name: "leaf not a string", record: obj{"name": obj{"last": 7}}, want: false},
		{name: "record not an object", record: "Peterson", want: false},
		{name: "nil record", record: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nested.Match(tt.record); got != tt.want {
				t.Errorf("nested Match() = %v, want %v", got, tt.want)
			}
			if got := dotted.Match(tt.record); got != tt.want {
				t.Errorf("dotted Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_TouchedDistinguishesParentFromLeaf(t *testing.T) {
	c := newCompiler(t, true)
	q := mustCompile(t, c, obj{"address": obj{"city": obj{"hasBeenTouched": false}}, "address.zip": obj{"hasBeenTouched": true}})

	if !q.Match(obj{"address": obj{"zip": nil}}) {
		t.Error("expected city untouched and zip touched to match")
	}
	if q.Match(obj{"address": obj{"zip": "1", "city": descriptor.Undefined}}) {
		t.Error("city present with undefined value counts as touched")
	}
	if q.Match(obj{}) {
		t.Error("zip absent with parent absent must not count as touched")
	}
}

type address struct {
	City string `json:"city"`
}

type person struct {
	Name    string   `json:"name"`
	Age     int
	Address *address `json:"address,omitempty"`
	secret  string
}

func TestCompile_StructRecords(t *testing.T) {
	c := newCompiler(t, true)
	q := mustCompile(t, c, obj{
		"name":         obj{"equals": "Ada"},
		"age":          obj{"greaterThan": 30},
		"address.city": obj{"beginsWith": "Lon"},
	})

	if !q.Match(&person{Name: "Ada", Age: 36, Address: &address{City: "London"}}) {
		t.Error("expected struct pointer record to match")
	}
	if !q.Match(person{Name: "Ada", Age: 36, Address: &address{City: "London"}}) {
		t.Error("expected struct record to match")
	}
	if q.Match(&person{Name: "Ada", Age: 36}) {
		t.Error("nil address must not match")
	}

	touched := mustCompile(t, c, obj{"address": obj{"hasBeenTouched": true, "isSet": false}})
	if !touched.Match(person{Name: "Ada"}) {
		t.Error("nil pointer field should be touched but not set")
	}

	hidden := mustCompile(t, c, obj{"secret": obj{"hasBeenTouched": true}})
	if hidden.Match(person{secret: "x"}) {
		t.Error("unexported fields must not resolve")
	}
}

func TestCompile_Negation(t *testing.T) {
	corpus := generateCorpus(300)
	descriptors := []interface{}{
		obj{"age": obj{"greaterThanOrEqualTo": 21, "lessThan": 68}},
		obj{"gender": obj{"equals": "Female"}, "occupation": obj{"contains": "Director"}},
		[]interface{}{obj{"age": obj{"lessThan": 18}}, obj{"name.first": obj{"equals": "Ian"}}},
		obj{"name": obj{"middle": obj{"hasBeenTouched": true}}},
	}

	for _, optimize := range []bool{true, false} {
		c := newCompiler(t, optimize)
		for i, desc := range descriptors {
			plain := mustCompile(t, c, desc)
			negated := mustCompile(t, c, obj{negationKey: desc})
			for _, r := range corpus {
				if plain.Match(r) == negated.Match(r) {
					t.Fatalf("descriptor %d (optimize=%v): negation is not the complement for %v", i, optimize, r)
				}
			}
		}
	}
}

func TestCompile_NegationAsMember(t *testing.T) {
	c := newCompiler(t, true)
	q := mustCompile(t, c, descriptor.D{
		{Key: "gender", Value: obj{"equals": "Female"}},
		{Key: negationKey, Value: obj{"age": obj{"lessThan": 21}}},
	})

	tests := []struct {
		record interface{}
		want   bool
	}{
		{obj{"gender": "Female", "age": 30}, true},
		{obj{"gender": "Female", "age": 18}, false},
		{obj{"gender": "Female"}, true},
		{obj{"gender": "Male", "age": 30}, false},
	}
	for _, tt := range tests {
		if got := q.Match(tt.record); got != tt.want {
			t.Errorf("Match(%v) = %v, want %v", tt.record, got, tt.want)
		}
	}

	scoped := mustCompile(t, c, obj{"age": obj{negationKey: obj{"lessThan": 21}}})
	if !scoped.Match(obj{"age": 40}) || scoped.Match(obj{"age": 20}) {
		t.Error("negation inside a field scope should invert the comparator on that field")
	}
}

func TestCompile_Disjunction(t *testing.T) {
	corpus := generateCorpus(300)
	a := obj{"age": obj{"lessThan": 21}}
	b := obj{"gender": obj{"equals": "Male"}, "occupation": obj{"contains": "Business"}}

	c := newCompiler(t, true)
	qa, qb := mustCompile(t, c, a), mustCompile(t, c, b)
	either := mustCompile(t, c, []interface{}{a, b})

	for _, r := range corpus {
		if got, want := either.Match(r), qa.Match(r) || qb.Match(r); got != want {
			t.Fatalf("disjunction Match(%v) = %v, want %v", r, got, want)
		}
	}
}

func TestCompile_FieldSequence(t *testing.T) {
	c := newCompiler(t, true)
	q := mustCompile(t, c, obj{"age": []interface{}{obj{"lessThan": 21}, obj{"greaterThan": 65}}})

	tests := []struct {
		age  interface{}
		want bool
	}{
		{18, true},
		{30, false},
		{70, true},
		{"young", false},
	}
	for _, tt := range tests {
		if got := q.Match(obj{"age": tt.age}); got != tt.want {
			t.Errorf("Match(age=%v) = %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestCompile_EmptyDescriptors(t *testing.T) {
	c := newCompiler(t, true)

	if q := mustCompile(t, c, obj{}); !q.Match(obj{"a": 1}) || !q.Match(nil) {
		t.Error("empty mapping should match every record")
	}
	if q := mustCompile(t, c, []interface{}{}); q.Match(obj{"a": 1}) {
		t.Error("empty sequence should match no record")
	}
}

func TestCompile_OptimizedMatchesDeclarationOrder(t *testing.T) {
	corpus := generateCorpus(1000)
	descriptors := []interface{}{
		benchmarkQuery(),
		obj{
			"occupation": obj{"contains": "Engineer", "typeOf": "string"},
			"name":       obj{"first": obj{"beginsWith": "A"}, "last": obj{"isSet": true}},
			"age":        obj{"greaterThan": 30},
			negationKey:  obj{"gender": obj{"equals": "Male"}},
		},
		obj{
			"tags":   obj{"typeOf": "array"},
			"tags.0": obj{"equals": "vip"},
			"score":  obj{"lessThanOrEqualTo": 50.5, "isSet": true},
		},
		[]interface{}{
			obj{"name.middle": obj{"hasBeenTouched": true}},
			obj{"age": obj{"typeOf": "null"}},
		},
	}

	optimized := newCompiler(t, true)
	declared := newCompiler(t, false)

	for i, desc := range descriptors {
		qo := mustCompile(t, optimized, desc)
		qd := mustCompile(t, declared, desc)

		matched := 0
		for _, r := range corpus {
			o, d := qo.Match(r), qd.Match(r)
			if o != d {
				t.Fatalf("descriptor %d: optimized = %v, declaration order = %v for %v", i, o, d, r)
			}
			if o {
				matched++
			}
		}
		t.Logf("descriptor %d matched %d of %d records", i, matched, len(corpus))
	}
}

func TestCompile_PlanOrdering(t *testing.T) {
	desc := descriptor.D{
		{Key: "occupation", Value: descriptor.D{{Key: "contains", Value: "Director"}}},
		{Key: "age", Value: descriptor.D{{Key: "greaterThanOrEqualTo", Value: 21}, {Key: "lessThan", Value: 68}}},
		{Key: "gender", Value: descriptor.D{{Key: "equals", Value: "Female"}}},
		{Key: "email", Value: descriptor.D{{Key: "isSet", Value: true}}},
	}

	order := func(q *Query) []string {
		var out []string
		for _, test := range q.Plan().Tests() {
			out = append(out, test.Path+" "+test.Comparator)
		}
		return out
	}

	declared := mustCompile(t, newCompiler(t, false), desc)
	want := []string{"occupation contains", "age greaterThanOrEqualTo", "age lessThan", "gender equals", "email isSet"}
	if got := order(declared); !reflect.DeepEqual(got, want) {
		t.Errorf("declaration order = %v, want %v", got, want)
	}
	if declared.Strategy() != "declaration" {
		t.Errorf("Strategy() = %q, want declaration", declared.Strategy())
	}

	optimized := mustCompile(t, newCompiler(t, true), desc)
	want = []string{"gender equals", "age greaterThanOrEqualTo", "age lessThan", "email isSet", "occupation contains"}
	if got := order(optimized); !reflect.DeepEqual(got, want) {
		t.Errorf("optimized order = %v, want %v", got, want)
	}

	if !strings.Contains(optimized.Plan().String(), `test gender equals "Female"`) {
		t.Errorf("plan output missing equality test:\n%s", optimized.Plan().String())
	}
}

func TestCompile_DisjunctionOrderIsKept(t *testing.T) {
	desc := []interface{}{
		obj{"occupation": obj{"contains": "Director"}},
		obj{"gender": obj{"equals": "Female"}},
	}

	q := mustCompile(t, newCompiler(t, true), desc)
	plan := q.Plan()
	if plan.Op != OpAny || len(plan.Children) != 2 {
		t.Fatalf("plan = %s, want any with two children", plan)
	}
	if got := plan.Children[0].Tests()[0].Comparator; got != "contains" {
		t.Errorf("first alternative = %q, want contains", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		desc       interface{}
		target     error
		path       string
		suggestion string
	}{
		{
			name:       "misspelt comparator in condition map",
			desc:       obj{"age": obj{"lessThn": 21}},
			target:     ErrUnknownComparator,
			path:       "$.age.lessThn",
			suggestion: "did you mean 'lessThan'?",
		},
		{
			name:   "unknown entry mixed with comparators",
			desc:   obj{"age": obj{"lessThan": 21, "between": 5}},
			target: ErrUnknownComparator,
			path:   "$.age.between",
		},
		{
			name:       "misspelt comparator at root",
			desc:       obj{"isSett": true},
			target:     ErrUnknownComparator,
			path:       "$.isSett",
			suggestion: "did you mean 'isSet'?",
		},
		{
			name:   "comparators mixed with nested descriptor",
			desc:   obj{"name": obj{"equals": "x", "first": obj{"equals": "y"}}},
			target: ErrMalformedDescriptor,
			path:   "$.name.first",
		},
		{
			name:   "scalar field value",
			desc:   obj{"age": 25},
			target: ErrMalformedDescriptor,
			path:   "$.age",
		},
		{
			name:   "null field value",
			desc:   obj{"occupation": nil},
			target: ErrMalformedDescriptor,
			path:   "$.occupation",
		},
		{
			name:   "scalar descriptor",
			desc:   "age",
			target: ErrMalformedDescriptor,
			path:   "$",
		},
		{
			name:   "scalar negation",
			desc:   obj{negationKey: true},
			target: ErrMalformedDescriptor,
			path:   "$.!not",
		},
		{
			name:   "scalar in sequence",
			desc:   []interface{}{obj{"a": obj{"equals": 1}}, 5},
			target: ErrMalformedDescriptor,
			path:   "$[1]",
		},
		{
			name:   "empty path segment",
			desc:   obj{"name..last": obj{"equals": "x"}},
			target: ErrMalformedDescriptor,
			path:   "$.name..last",
		},
		{
			name:   "non-numeric ordering argument",
			desc:   obj{"age": obj{"greaterThan": "21"}},
			target: ErrInvalidArgument,
			path:   "$.age.greaterThan",
		},
		{
			name:   "unknown type tag",
			desc:   obj{"age": obj{"typeOf": "integer"}},
			target: ErrInvalidArgument,
			path:   "$.age.typeOf",
		},
	}

	c := newCompiler(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.desc)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.target)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *CompileError", err)
			}
			if ce.Path != tt.path {
				t.Errorf("Path = %q, want %q", ce.Path, tt.path)
			}
			if ce.Suggestion != tt.suggestion {
				t.Errorf("Suggestion = %q, want %q", ce.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestCompile_InvalidArgumentWrapsCause(t *testing.T) {
	_, err := newCompiler(t, true).Compile(obj{"name": obj{"contains": 5}})
	var argErr *dictionary.ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v, want wrapped *dictionary.ArgumentError", err)
	}
	if argErr.Comparator != "contains" {
		t.Errorf("Comparator = %q, want contains", argErr.Comparator)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoDictionary) {
		t.Errorf("New() without dictionary error = %v, want ErrNoDictionary", err)
	}
	if _, err := New(Config{Dictionary: dictionary.Default(), NegationKey: "equals"}); !errors.Is(err, ErrNegationCollision) {
		t.Errorf("New() with colliding negation key error = %v, want ErrNegationCollision", err)
	}
}

func TestCompile_NegationDisabled(t *testing.T) {
	c, err := New(Config{Dictionary: dictionary.Default()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Without a negation key "!not" is an ordinary field name.
	q := mustCompile(t, c, obj{negationKey: obj{"equals": 1}})
	if !q.Match(obj{negationKey: 1}) {
		t.Error("expected !not to be treated as a field")
	}
}

func TestCompile_CustomPathSeparator(t *testing.T) {
	c, err := New(Config{Dictionary: dictionary.Default(), PathSeparator: "/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	q := mustCompile(t, c, obj{"meta/version.major": obj{"equals": 2}})
	if !q.Match(obj{"meta": obj{"version.major": 2}}) {
		t.Error("expected / to separate segments and . to be literal")
	}
}

func TestCompile_CustomComparator(t *testing.T) {
	dict := dictionary.Default().Extend().
		MustRegister("isEven", func(actual, _ interface{}) bool {
			n, ok := dictionary.ToFloat64(actual)
			return ok && int(n)%2 == 0
		}).
		Build()

	pred, err := Compile(obj{"count": obj{"isEven": true, "greaterThan": 2}}, Config{Dictionary: dict})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	for count, want := range map[int]bool{2: false, 3: false, 4: true, 7: false, 10: true} {
		if got := pred(obj{"count": count}); got != want {
			t.Errorf("count=%d: got %v, want %v", count, got, want)
		}
	}
}

func TestQuery_ConcurrentUse(t *testing.T) {
	corpus := generateCorpus(200)
	q := mustCompile(t, newCompiler(t, true), benchmarkQuery())

	want := make([]bool, len(corpus))
	for i, r := range corpus {
		want[i] = q.Match(r)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, r := range corpus {
				if q.Match(r) != want[i] {
					errs <- fmt.Errorf("record %d: result changed under concurrent use", i)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestResolve(t *testing.T) {
	record := obj{
		"name":  obj{"first": "Ian", "middle": nil},
		"tags":  []interface{}{"vip", "beta"},
		"codes": []string{"a", "b"},
		"meta":  map[string]int{"version": 3},
		"blob":  []byte("xyz"),
	}

	tests := []struct {
		path        string
		wantValue   interface{}
		wantPresent bool
	}{
		{"name.first", "Ian", true},
		{"name.middle", nil, true},
		{"name.last", descriptor.Undefined, false},
		{"name.first.initial", descriptor.Undefined, false},
		{"tags.1", "beta", true},
		{"tags.2", descriptor.Undefined, false},
		{"tags.-1", descriptor.Undefined, false},
		{"codes.0", "a", true},
		{"meta.version", 3, true},
		{"meta.patch", descriptor.Undefined, false},
		{"blob.0", descriptor.Undefined, false},
		{"missing.anything", descriptor.Undefined, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			value, present := Resolve(record, strings.Split(tt.path, "."))
			if present != tt.wantPresent {
				t.Errorf("present = %v, want %v", present, tt.wantPresent)
			}
			if !reflect.DeepEqual(value, tt.wantValue) {
				t.Errorf("value = %#v, want %#v", value, tt.wantValue)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"isSet", "isSet", 0},
		{"isSett", "isSet", 1},
		{"lessThn", "lessThan", 1},
		{"equal", "equals", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func benchmarkQuery() interface{} {
	return []interface{}{
		obj{
			"name":       obj{"last": obj{"beginsWith": "P", "endsWith": "son"}},
			"age":        obj{"greaterThanOrEqualTo": 21, "lessThan": 68},
			"gender":     obj{"equals": "Female"},
			"occupation": obj{"equals": "Rehabilitation Services Director"},
		},
		obj{
			"name":       obj{"first": obj{"equals": "Ian"}},
			"age":        obj{"greaterThanOrEqualTo": 21, "lessThan": 90},
			"gender":     obj{"equals": "Male"},
			"occupation": obj{"contains": "Business"},
		},
	}
}

// generateCorpus returns deterministic heterogeneous records: some fields are
// missing, null, undefined or of an unexpected type.
func generateCorpus(n int) []interface{} {
	rng := rand.New(rand.NewSource(42))
	firsts := []string{"Ian", "Ada", "Alan", "Grace", "Ivy"}
	lasts := []string{"Peterson", "Pearson", "Smith", "Parson", "Lovelace"}
	occupations := []string{"Rehabilitation Services Director", "Business Analyst", "Software Engineer", "Director", "Business Owner"}
	genders := []string{"Female", "Male"}

	records := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		name := obj{"first": firsts[rng.Intn(len(firsts))]}
		if rng.Intn(5) > 0 {
			name["last"] = lasts[rng.Intn(len(lasts))]
		}
		if rng.Intn(4) == 0 {
			name["middle"] = descriptor.Undefined
		}

		r := obj{
			"name":       name,
			"gender":     genders[rng.Intn(len(genders))],
			"occupation": occupations[rng.Intn(len(occupations))],
		}

		switch rng.Intn(8) {
		case 0:
			r["age"] = nil
		case 1:
			r["age"] = "forty"
		case 2:
		default:
			r["age"] = 10 + rng.Intn(80)
		}

		if rng.Intn(2) == 0 {
			r["score"] = rng.Float64() * 100
		}
		if rng.Intn(3) == 0 {
			r["tags"] = []interface{}{"vip", "beta"}
		} else if rng.Intn(3) == 0 {
			r["tags"] = obj{"0": "vip"}
		}
		if rng.Intn(10) == 0 {
			r["name"] = "anonymous"
		}

		records = append(records, r)
	}
	return records
}
