package descriptor

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
)

// E is a single key/value entry of an ordered document.
type E struct {
	Key   string
	Value interface{}
}

// D is an ordered document. Entry order is declaration order.
type D []E

// Get returns the value stored under key and whether the key exists.
// An absent key yields Undefined.
func (d D) Get(key string) (interface{}, bool) {
	for i := range d {
		if d[i].Key == key {
			return d[i].Value, true
		}
	}
	return Undefined, false
}

// Keys returns the document keys in order.
func (d D) Keys() []string {
	keys := make([]string, len(d))
	for i := range d {
		keys[i] = d[i].Key
	}
	return keys
}

// Map converts the document into a map, recursively converting nested
// documents and sequences. Key order is lost.
func (d D) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(d))
	for _, e := range d {
		m[e.Key] = plain(e.Value)
	}
	return m
}

// MarshalJSON encodes the document as a JSON object in entry order.
func (d D) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case D:
		return t.Map()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	default:
		return v
	}
}

// undefined is the type of the Undefined sentinel.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// MarshalJSON encodes Undefined as null, JSON having no undefined value.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Undefined marks a value that is present but holds nothing. It is also what
// resolving an absent key yields.
var Undefined interface{} = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v interface{}) bool {
	_, ok := v.(undefined)
	return ok
}

// IsNullish reports whether v is nil, a nil pointer, or Undefined.
func IsNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(undefined); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Entries returns the entries of a mapping value in declaration order.
// D values keep their own order; maps with string keys are visited in sorted
// key order. The second result is false when v is not a mapping.
func Entries(v interface{}) ([]E, bool) {
	switch t := v.(type) {
	case D:
		return t, true
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]E, len(keys))
		for i, k := range keys {
			out[i] = E{Key: k, Value: t[k]}
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make([]E, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, E{Key: iter.Key().String(), Value: iter.Value().Interface()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, true
}

// Sequence returns the elements of a sequence value. Byte slices are not
// sequences. The second result is false when v is not a sequence.
func Sequence(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []D:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case nil, []byte, string:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
