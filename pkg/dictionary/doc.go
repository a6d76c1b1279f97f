// Package dictionary provides the comparator dictionary used by the query
// compiler.
//
// A comparator is a named, pure test of an actual value against an expected
// argument. Comparators are resolved by name once, when a query is compiled;
// the expected argument is validated and bound at that point so evaluation
// never looks names up or re-checks argument types.
//
// The built-in set (see Default) covers equality, numeric ordering, string
// prefix/suffix/substring tests, type checks and the two presence checks:
//
//   - isSet is true when the resolved value is neither null nor undefined.
//   - hasBeenTouched is true when the key exists on the record, whatever its
//     value. It is the only built-in applied to key presence rather than to
//     the resolved value (OperandPresence).
//
// Dictionaries are immutable. Additional comparators are registered on a
// Builder before any compilation takes place:
//
//	dict := dictionary.Default().Extend().
//	    MustRegister("matchesRegion", func(actual, expected interface{}) bool {
//	        s, _ := actual.(string)
//	        return strings.HasPrefix(s, expected.(string)+"-")
//	    }).
//	    Build()
package dictionary
