package compiler

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"mercator-hq/pursuit/pkg/descriptor"
)

// Resolve returns the value at the given path segments and whether the last
// key exists. Segments are resolved one level at a time; a missing or
// non-container intermediate value makes the path absent without error.
// An absent path yields descriptor.Undefined.
func Resolve(record interface{}, segments []string) (interface{}, bool) {
	value := record
	for _, seg := range segments {
		var ok bool
		value, ok = step(value, seg)
		if !ok {
			return descriptor.Undefined, false
		}
	}
	return value, true
}

// splitPath splits a field key into path segments. Empty segments are
// rejected.
func splitPath(key, sep string) ([]string, bool) {
	if key == "" {
		return nil, false
	}
	if sep == "" {
		return []string{key}, true
	}
	segments := strings.Split(key, sep)
	for _, seg := range segments {
		if seg == "" {
			return nil, false
		}
	}
	return segments, true
}

// step resolves a single key against a container value.
func step(value interface{}, key string) (interface{}, bool) {
	switch t := value.(type) {
	case map[string]interface{}:
		v, ok := t[key]
		return v, ok
	case descriptor.D:
		return t.Get(key)
	case []interface{}:
		i, ok := index(key, len(t))
		if !ok {
			return nil, false
		}
		return t[i], true
	case nil, string, bool, float64, int:
		return nil, false
	}
	if descriptor.IsUndefined(value) {
		return nil, false
	}
	return stepReflect(reflect.ValueOf(value), key)
}

func stepReflect(rv reflect.Value, key string) (interface{}, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true

	case reflect.Struct:
		idx, ok := structFields(rv.Type()).lookup(key)
		if !ok {
			return nil, false
		}
		f, err := rv.FieldByIndexErr(idx)
		if err != nil {
			return nil, false
		}
		return f.Interface(), true

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		i, ok := index(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(i).Interface(), true

	default:
		return nil, false
	}
}

func index(key string, length int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// fieldIndex maps record keys onto the exported fields of a struct type.
type fieldIndex struct {
	byTag  map[string][]int
	byName map[string][]int
}

func (fi *fieldIndex) lookup(key string) ([]int, bool) {
	if idx, ok := fi.byTag[key]; ok {
		return idx, true
	}
	idx, ok := fi.byName[strings.ToLower(key)]
	return idx, ok
}

var fieldCache sync.Map // reflect.Type -> *fieldIndex

// structFields returns the cached field index of t. Fields are addressed by
// their json tag name first, then by case-insensitive field name.
func structFields(t reflect.Type) *fieldIndex {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(*fieldIndex)
	}

	fi := &fieldIndex{
		byTag:  make(map[string][]int),
		byName: make(map[string][]int),
	}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				if _, exists := fi.byTag[name]; !exists {
					fi.byTag[name] = f.Index
				}
			}
		}
		lower := strings.ToLower(f.Name)
		if _, exists := fi.byName[lower]; !exists {
			fi.byName[lower] = f.Index
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fi)
	return actual.(*fieldIndex)
}
