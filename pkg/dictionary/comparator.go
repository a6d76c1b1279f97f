package dictionary

import (
	"fmt"
	"strings"
)

// Kind classifies a comparator. The compiler's cost model and plan output are
// keyed by kind, so every registered comparator belongs to exactly one.
type Kind int

const (
	// KindEquality tests strict equality.
	KindEquality Kind = iota
	// KindType tests the normalized type tag.
	KindType
	// KindPresence tests that a value is neither null nor undefined.
	KindPresence
	// KindTouched tests that a key exists at all.
	KindTouched
	// KindOrdering tests numeric ordering.
	KindOrdering
	// KindPrefix tests a string prefix.
	KindPrefix
	// KindSuffix tests a string suffix.
	KindSuffix
	// KindSubstring tests for a substring anywhere in a string.
	KindSubstring
	// KindCustom is any comparator registered by callers.
	KindCustom
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEquality:
		return "equality"
	case KindType:
		return "type"
	case KindPresence:
		return "presence"
	case KindTouched:
		return "touched"
	case KindOrdering:
		return "ordering"
	case KindPrefix:
		return "prefix"
	case KindSuffix:
		return "suffix"
	case KindSubstring:
		return "substring"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Operand selects what a comparator is applied to.
type Operand int

const (
	// OperandValue applies the comparator to the resolved field value.
	OperandValue Operand = iota
	// OperandPresence applies the comparator to whether the field key exists.
	// The actual value passed to the test is a bool.
	OperandPresence
)

// Func is the signature of a comparator registered by callers.
type Func func(actual, expected interface{}) bool

// Test is a comparator bound to its expected argument.
type Test func(actual interface{}) bool

// BindFunc binds an expected argument, validating it once.
type BindFunc func(expected interface{}) (Test, error)

// Comparator is a named binary test. Its expected argument is bound once at
// compile time, producing a Test that is evaluated per record.
type Comparator struct {
	name    string
	kind    Kind
	operand Operand
	bind    BindFunc
}

// NewComparator creates a comparator with an explicit kind and operand.
func NewComparator(name string, kind Kind, operand Operand, bind BindFunc) Comparator {
	return Comparator{name: name, kind: kind, operand: operand, bind: bind}
}

// Custom wraps a caller-supplied function as a comparator of KindCustom.
func Custom(name string, fn Func) Comparator {
	return Comparator{
		name:    name,
		kind:    KindCustom,
		operand: OperandValue,
		bind: func(expected interface{}) (Test, error) {
			return func(actual interface{}) bool { return fn(actual, expected) }, nil
		},
	}
}

// Name returns the comparator name as used in condition maps.
func (c Comparator) Name() string { return c.name }

// Kind returns the comparator kind.
func (c Comparator) Kind() Kind { return c.kind }

// Operand returns what the comparator is applied to.
func (c Comparator) Operand() Operand { return c.operand }

// Bind validates expected and returns the bound test.
func (c Comparator) Bind(expected interface{}) (Test, error) {
	if c.bind == nil {
		return nil, fmt.Errorf("comparator %q has no implementation", c.name)
	}
	return c.bind(expected)
}

// ArgumentError reports an expected argument a comparator cannot accept.
type ArgumentError struct {
	Comparator string
	Argument   interface{}
	Reason     string
}

// Error returns the error message.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("comparator %q: invalid argument %v (%T): %s", e.Comparator, e.Argument, e.Argument, e.Reason)
}

// Built-in comparator names.
const (
	Equals               = "equals"
	GreaterThan          = "greaterThan"
	GreaterThanOrEqualTo = "greaterThanOrEqualTo"
	LessThan             = "lessThan"
	LessThanOrEqualTo    = "lessThanOrEqualTo"
	Contains             = "contains"
	BeginsWith           = "beginsWith"
	EndsWith             = "endsWith"
	TypeOfName           = "typeOf"
	IsSet                = "isSet"
	HasBeenTouched       = "hasBeenTouched"
)

// builtins returns the built-in comparators in registration order.
func builtins() []Comparator {
	return []Comparator{
		NewComparator(Equals, KindEquality, OperandValue, bindEquals),
		NewComparator(GreaterThan, KindOrdering, OperandValue, bindOrdering(GreaterThan, func(a, e float64) bool { return a > e })),
		NewComparator(GreaterThanOrEqualTo, KindOrdering, OperandValue, bindOrdering(GreaterThanOrEqualTo, func(a, e float64) bool { return a >= e })),
		NewComparator(LessThan, KindOrdering, OperandValue, bindOrdering(LessThan, func(a, e float64) bool { return a < e })),
		NewComparator(LessThanOrEqualTo, KindOrdering, OperandValue, bindOrdering(LessThanOrEqualTo, func(a, e float64) bool { return a <= e })),
		NewComparator(Contains, KindSubstring, OperandValue, bindString(Contains, strings.Contains)),
		NewComparator(BeginsWith, KindPrefix, OperandValue, bindString(BeginsWith, strings.HasPrefix)),
		NewComparator(EndsWith, KindSuffix, OperandValue, bindString(EndsWith, strings.HasSuffix)),
		NewComparator(TypeOfName, KindType, OperandValue, bindTypeOf),
		NewComparator(IsSet, KindPresence, OperandValue, bindIsSet),
		NewComparator(HasBeenTouched, KindTouched, OperandPresence, bindTouched),
	}
}

func bindEquals(expected interface{}) (Test, error) {
	if n, ok := ToFloat64(expected); ok {
		return func(actual interface{}) bool {
			a, ok := ToFloat64(actual)
			return ok && a == n
		}, nil
	}
	if s, ok := AsString(expected); ok {
		return func(actual interface{}) bool {
			a, ok := AsString(actual)
			return ok && a == s
		}, nil
	}
	if b, ok := AsBool(expected); ok {
		return func(actual interface{}) bool {
			a, ok := AsBool(actual)
			return ok && a == b
		}, nil
	}
	return func(actual interface{}) bool { return Equal(actual, expected) }, nil
}

func bindOrdering(name string, cmp func(actual, expected float64) bool) BindFunc {
	return func(expected interface{}) (Test, error) {
		e, ok := ToFloat64(expected)
		if !ok {
			return nil, &ArgumentError{Comparator: name, Argument: expected, Reason: "expected a number"}
		}
		return func(actual interface{}) bool {
			a, ok := ToFloat64(actual)
			return ok && cmp(a, e)
		}, nil
	}
}

func bindString(name string, match func(s, substr string) bool) BindFunc {
	return func(expected interface{}) (Test, error) {
		e, ok := AsString(expected)
		if !ok {
			return nil, &ArgumentError{Comparator: name, Argument: expected, Reason: "expected a string"}
		}
		return func(actual interface{}) bool {
			a, ok := AsString(actual)
			return ok && match(a, e)
		}, nil
	}
}

func bindTypeOf(expected interface{}) (Test, error) {
	tag, ok := AsString(expected)
	if !ok || !isTypeTag(tag) {
		return nil, &ArgumentError{
			Comparator: TypeOfName,
			Argument:   expected,
			Reason:     "expected one of " + strings.Join(TypeTags, ", "),
		}
	}
	return func(actual interface{}) bool { return TypeOf(actual) == tag }, nil
}

func bindIsSet(expected interface{}) (Test, error) {
	want, ok := AsBool(expected)
	if !ok {
		return nil, &ArgumentError{Comparator: IsSet, Argument: expected, Reason: "expected a boolean"}
	}
	return func(actual interface{}) bool { return isSet(actual) == want }, nil
}

func bindTouched(expected interface{}) (Test, error) {
	want, ok := AsBool(expected)
	if !ok {
		return nil, &ArgumentError{Comparator: HasBeenTouched, Argument: expected, Reason: "expected a boolean"}
	}
	return func(present interface{}) bool {
		p, _ := present.(bool)
		return p == want
	}, nil
}

func isSet(v interface{}) bool {
	switch TypeOf(v) {
	case TypeNull, TypeUndefined:
		return false
	default:
		return true
	}
}

func isTypeTag(tag string) bool {
	for _, t := range TypeTags {
		if t == tag {
			return true
		}
	}
	return false
}
