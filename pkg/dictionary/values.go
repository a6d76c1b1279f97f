package dictionary

import (
	"encoding/json"
	"reflect"

	"mercator-hq/pursuit/pkg/descriptor"
)

// Type tags reported by TypeOf and accepted by the typeOf comparator.
const (
	TypeString    = "string"
	TypeNumber    = "number"
	TypeObject    = "object"
	TypeBoolean   = "boolean"
	TypeUndefined = "undefined"
	TypeArray     = "array"
	TypeNull      = "null"
)

// TypeTags lists every type tag.
var TypeTags = []string{TypeString, TypeNumber, TypeObject, TypeBoolean, TypeUndefined, TypeArray, TypeNull}

// TypeOf returns the normalized type tag of v. Arrays are "array", never
// "object"; nil and nil pointers are "null"; Undefined is "undefined".
func TypeOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return TypeNumber
	case descriptor.D, map[string]interface{}:
		return TypeObject
	case []interface{}:
		return TypeArray
	default:
		if descriptor.IsUndefined(t) {
			return TypeUndefined
		}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return TypeNull
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Slice, reflect.Array:
		return TypeArray
	default:
		return TypeObject
	}
}

// ToFloat64 converts a numeric value to float64. Strings and booleans are not
// numbers and report false.
func ToFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case nil, string, bool:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// AsString returns the string held by v, including named string types.
func AsString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case nil, json.Number:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// AsBool returns the boolean held by v, including named bool types.
func AsBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	if v == nil {
		return false, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

// Equal reports strict equality between two values. Numbers compare by value
// regardless of Go numeric kind; other values must share a type tag, with
// composites compared structurally. No coercion between tags happens, so
// "5" is not equal to 5 and nil is not equal to Undefined.
func Equal(actual, expected interface{}) bool {
	if en, ok := ToFloat64(expected); ok {
		an, ok := ToFloat64(actual)
		return ok && an == en
	}
	if es, ok := AsString(expected); ok {
		as, ok := AsString(actual)
		return ok && as == es
	}
	if eb, ok := AsBool(expected); ok {
		ab, ok := AsBool(actual)
		return ok && ab == eb
	}

	at, et := TypeOf(actual), TypeOf(expected)
	if at != et {
		return false
	}
	switch et {
	case TypeNull, TypeUndefined:
		return true
	case TypeObject:
		if ad, ok := actual.(descriptor.D); ok {
			actual = ad.Map()
		}
		if ed, ok := expected.(descriptor.D); ok {
			expected = ed.Map()
		}
	}
	return reflect.DeepEqual(actual, expected)
}
