// Package descriptor defines the data model shared by query descriptors and
// the records they are evaluated against.
//
// A query descriptor is either a mapping from field paths to condition maps or
// nested descriptors, or a sequence of descriptors that are combined with OR.
// Because member order is significant when optimization is disabled, mappings
// are represented by the ordered document type D rather than a Go map:
//
//	q := descriptor.D{
//	    {Key: "age", Value: descriptor.D{
//	        {Key: "greaterThanOrEqualTo", Value: 21},
//	        {Key: "lessThan", Value: 68},
//	    }},
//	    {Key: "gender", Value: descriptor.D{{Key: "equals", Value: "Female"}}},
//	}
//
// Plain map[string]interface{} values are accepted wherever a D is, with their
// keys visited in sorted order.
//
// # Null and undefined
//
// Go has a single nil, so the package provides the Undefined sentinel for
// values that are present on a record but hold nothing. A nil value is null.
// An absent key resolves to Undefined and is reported as not present, which is
// what separates the "touched" and "set" presence checks.
//
// # Decoding
//
// Parse decodes JSON or YAML documents into D values and []interface{}
// sequences, keeping the key order found in the source. LoadFile reads a query
// file holding a list of named queries.
package descriptor
