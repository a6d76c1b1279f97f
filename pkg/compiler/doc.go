// Package compiler turns query descriptors into reusable record predicates.
//
// A query descriptor is either a mapping or a sequence. A sequence is a
// disjunction: the compiled predicate matches when any of its descriptors
// matches, tried in the order given. A mapping is a conjunction over its keys.
// Each key is read in declaration order and classified as one of:
//
//   - the negation key (Config.NegationKey), whose value is a descriptor whose
//     result is inverted and added as a single conjunction member;
//   - a comparator name, tested against the value currently in scope (the
//     record itself at the top level);
//   - a field path, split on Config.PathSeparator. Its value is a condition
//     map (every key a comparator name), a nested descriptor evaluated against
//     the field's value, or a sequence of descriptors evaluated against it.
//
// For example, with the negation key "!not":
//
//	age:
//	  greaterThanOrEqualTo: 21
//	  lessThan: 68
//	gender: {equals: Female}
//	address:
//	  city: {beginsWith: San}
//	"!not":
//	  occupation: {equals: Director}
//
// Condition map entries become one member each, flattened into the enclosing
// conjunction so that the optimizer can order them alongside their siblings.
// Nested descriptors, negations and sequences become one member whose inner
// structure gets its own optimizer pass. Sequence order is never changed.
//
// # Optimization
//
// Every member carries a static Estimate of its evaluation cost and of the
// probability that it passes. With optimization enabled (the default),
// members of each conjunction are stably sorted by Cost / (1 - Pass), so
// cheap tests that are likely to fail run first. The estimates come from the
// comparator kind, the shape of the expected argument and the path depth; they
// are never adjusted from observed data. Conjunction is commutative, so the
// reordered predicate returns the same result for every record.
//
// # Errors
//
// Compilation fails fast with a *CompileError. errors.Is reports its kind
// against ErrUnknownComparator, ErrMalformedDescriptor and ErrInvalidArgument.
// Evaluation never fails: absent fields and values of the wrong type make the
// affected comparator false.
//
// # Concurrency
//
// A Compiler and the Queries it produces are immutable and safe for
// concurrent use. Comparator dictionaries are immutable as well, so a
// dictionary cannot change while queries are being compiled.
package compiler
