package compiler

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/dictionary"
)

// DefaultPathSeparator separates the segments of a field path.
const DefaultPathSeparator = "."

// Config configures a Compiler.
type Config struct {
	// Dictionary holds the comparators descriptors may name. Required.
	Dictionary *dictionary.Dictionary

	// NegationKey is the reserved key whose descriptor is inverted. Empty
	// disables negation.
	NegationKey string

	// DisableOptimization keeps every conjunction in declaration order.
	DisableOptimization bool

	// PathSeparator splits field keys into nested paths. Defaults to
	// DefaultPathSeparator.
	PathSeparator string

	// Logger receives debug records about compilation. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Predicate reports whether a record matches a compiled query.
type Predicate func(record interface{}) bool

// evalFunc evaluates a compiled member against the value in scope and whether
// that value's key exists.
type evalFunc func(value interface{}, present bool) bool

// member is one compiled conjunction member and its plan.
type member struct {
	eval evalFunc
	plan *Plan
}

// Compiler compiles query descriptors. It is immutable and safe for
// concurrent use.
type Compiler struct {
	dict        *dictionary.Dictionary
	names       []string
	negationKey string
	separator   string
	strategy    strategy
	logger      *slog.Logger
}

// New validates cfg and creates a compiler.
func New(cfg Config) (*Compiler, error) {
	if cfg.Dictionary == nil {
		return nil, ErrNoDictionary
	}
	if cfg.NegationKey != "" && cfg.Dictionary.Has(cfg.NegationKey) {
		return nil, fmt.Errorf("%w: %q", ErrNegationCollision, cfg.NegationKey)
	}

	separator := cfg.PathSeparator
	if separator == "" {
		separator = DefaultPathSeparator
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var s strategy = costOrder{}
	if cfg.DisableOptimization {
		s = declarationOrder{}
	}

	return &Compiler{
		dict:        cfg.Dictionary,
		names:       cfg.Dictionary.Names(),
		negationKey: cfg.NegationKey,
		separator:   separator,
		strategy:    s,
		logger:      logger.With("component", "compiler"),
	}, nil
}

// Compile compiles a descriptor with a one-off compiler built from cfg.
func Compile(desc interface{}, cfg Config) (Predicate, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	q, err := c.Compile(desc)
	if err != nil {
		return nil, err
	}
	return q.Predicate(), nil
}

// Optimized reports whether the compiler reorders conjunctions.
func (c *Compiler) Optimized() bool {
	_, ok := c.strategy.(costOrder)
	return ok
}

// Strategy names the conjunction ordering strategy: "cost" or "declaration".
func (c *Compiler) Strategy() string {
	return c.strategy.name()
}

// NegationKey returns the configured negation key.
func (c *Compiler) NegationKey() string {
	return c.negationKey
}

// Dictionary returns the compiler's comparator dictionary.
func (c *Compiler) Dictionary() *dictionary.Dictionary {
	return c.dict
}

// Compile compiles a descriptor into a Query. The descriptor is only read
// during the call.
func (c *Compiler) Compile(desc interface{}) (*Query, error) {
	start := time.Now()

	root, err := c.compileDescriptor(desc, "$")
	if err != nil {
		c.logger.Debug("query compilation failed", "error", err)
		return nil, err
	}

	q := &Query{
		eval:     root.eval,
		plan:     root.plan,
		strategy: c.strategy.name(),
	}

	c.logger.Debug("query compiled",
		"strategy", q.strategy,
		"tests", len(root.plan.Tests()),
		"estimated_cost", root.plan.Estimate.Cost,
		"duration", time.Since(start),
	)

	return q, nil
}

// compileDescriptor compiles a mapping into a conjunction or a sequence into
// a disjunction.
func (c *Compiler) compileDescriptor(desc interface{}, loc string) (member, error) {
	if entries, ok := descriptor.Entries(desc); ok {
		return c.compileMapping(entries, loc)
	}
	if items, ok := descriptor.Sequence(desc); ok {
		return c.compileSequence(items, loc)
	}
	return member{}, malformed(loc, "", "descriptor must be a mapping or a sequence, got %s", dictionary.TypeOf(desc))
}

func (c *Compiler) compileMapping(entries []descriptor.E, loc string) (member, error) {
	members := make([]member, 0, len(entries))

	for _, e := range entries {
		switch {
		case c.negationKey != "" && e.Key == c.negationKey:
			inner, err := c.compileDescriptor(e.Value, childLoc(loc, e.Key))
			if err != nil {
				return member{}, err
			}
			members = append(members, negate(inner))

		case c.dict.Has(e.Key):
			m, err := c.compileTest(nil, "", e.Key, e.Value, loc)
			if err != nil {
				return member{}, err
			}
			members = append(members, m)

		default:
			fields, err := c.compileField(e.Key, e.Value, loc)
			if err != nil {
				return member{}, err
			}
			members = append(members, fields...)
		}
	}

	return c.conjunction(members), nil
}

// compileField compiles the value of a field path key. Condition maps yield
// one member per comparator; everything else yields a single scoped member.
func (c *Compiler) compileField(key string, value interface{}, loc string) ([]member, error) {
	fieldLoc := childLoc(loc, key)

	segments, ok := splitPath(key, c.separator)
	if !ok {
		return nil, malformed(fieldLoc, key, "invalid field path %q", key)
	}

	if entries, ok := descriptor.Entries(value); ok {
		if isConditionMap(entries, c.dict) {
			members := make([]member, 0, len(entries))
			for _, e := range entries {
				m, err := c.compileTest(segments, key, e.Key, e.Value, fieldLoc)
				if err != nil {
					return nil, err
				}
				members = append(members, m)
			}
			return members, nil
		}
		if err := c.checkMixed(entries, fieldLoc); err != nil {
			return nil, err
		}
		inner, err := c.compileMapping(entries, fieldLoc)
		if err != nil {
			return nil, err
		}
		return []member{scope(segments, key, inner)}, nil
	}

	if items, ok := descriptor.Sequence(value); ok {
		inner, err := c.compileSequence(items, fieldLoc)
		if err != nil {
			return nil, err
		}
		return []member{scope(segments, key, inner)}, nil
	}

	if looksLikeComparator(key, c.names) {
		return nil, c.unknownComparator(loc, key)
	}
	return nil, malformed(fieldLoc, key,
		"field %q maps to a %s; expected a condition map, a nested descriptor or a sequence",
		key, dictionary.TypeOf(value))
}

// checkMixed rejects a mapping that combines comparator entries with nested
// descriptor entries under one field key.
func (c *Compiler) checkMixed(entries []descriptor.E, loc string) error {
	hasComparator := false
	for _, e := range entries {
		if c.dict.Has(e.Key) {
			hasComparator = true
			break
		}
	}
	if !hasComparator {
		return nil
	}

	for _, e := range entries {
		if c.dict.Has(e.Key) {
			continue
		}
		if e.Key != c.negationKey && !isComposite(e.Value) {
			return c.unknownComparator(loc, e.Key)
		}
		return malformed(childLoc(loc, e.Key), e.Key,
			"condition map mixes comparators with nested descriptor %q", e.Key)
	}
	return nil
}

func (c *Compiler) unknownComparator(loc, key string) *CompileError {
	return &CompileError{
		Kind:       UnknownComparator,
		Path:       childLoc(loc, key),
		Key:        key,
		Message:    fmt.Sprintf("unknown comparator %q", key),
		Suggestion: suggestComparator(key, c.names),
	}
}

// compileTest binds one comparator. segments is the path from the current
// scope; nil tests the scope value itself.
func (c *Compiler) compileTest(segments []string, path, name string, expected interface{}, loc string) (member, error) {
	cmp, ok := c.dict.Lookup(name)
	if !ok {
		return member{}, c.unknownComparator(loc, name)
	}

	test, err := cmp.Bind(expected)
	if err != nil {
		return member{}, &CompileError{
			Kind:    InvalidArgument,
			Path:    childLoc(loc, name),
			Key:     name,
			Message: fmt.Sprintf("invalid argument for %q", name),
			Err:     err,
		}
	}

	plan := &Plan{
		Op:         OpTest,
		Path:       path,
		Comparator: name,
		Argument:   expected,
		Estimate:   leafEstimate(cmp.Kind(), expected, len(segments)),
	}

	return member{eval: leaf(segments, cmp.Operand(), test), plan: plan}, nil
}

func (c *Compiler) compileSequence(items []interface{}, loc string) (member, error) {
	members := make([]member, 0, len(items))
	for i, item := range items {
		m, err := c.compileDescriptor(item, loc+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return member{}, err
		}
		members = append(members, m)
	}
	return disjunction(members), nil
}

// conjunction orders members with the compiler's strategy and combines them
// with short-circuit AND.
func (c *Compiler) conjunction(members []member) member {
	ordered := c.strategy.order(members)

	evals := make([]evalFunc, len(ordered))
	children := make([]*Plan, len(ordered))
	for i, m := range ordered {
		evals[i] = m.eval
		children[i] = m.plan
	}

	return member{
		eval: allOf(evals),
		plan: &Plan{Op: OpAll, Estimate: conjunctionEstimate(ordered), Children: children},
	}
}

// disjunction combines members with short-circuit OR in the given order.
func disjunction(members []member) member {
	evals := make([]evalFunc, len(members))
	children := make([]*Plan, len(members))
	for i, m := range members {
		evals[i] = m.eval
		children[i] = m.plan
	}

	return member{
		eval: anyOf(evals),
		plan: &Plan{Op: OpAny, Estimate: disjunctionEstimate(members), Children: children},
	}
}

func negate(inner member) member {
	eval := inner.eval
	return member{
		eval: func(v interface{}, present bool) bool { return !eval(v, present) },
		plan: &Plan{
			Op:       OpNot,
			Estimate: Estimate{Cost: inner.plan.Estimate.Cost, Pass: 1 - inner.plan.Estimate.Pass},
			Children: []*Plan{inner.plan},
		},
	}
}

// scope resolves segments once and evaluates inner against the result.
func scope(segments []string, path string, inner member) member {
	eval := inner.eval
	return member{
		eval: func(v interface{}, _ bool) bool {
			value, ok := Resolve(v, segments)
			return eval(value, ok)
		},
		plan: &Plan{
			Op:   OpScope,
			Path: path,
			Estimate: Estimate{
				Cost: segmentCost*float64(len(segments)) + inner.plan.Estimate.Cost,
				Pass: inner.plan.Estimate.Pass,
			},
			Children: []*Plan{inner.plan},
		},
	}
}

func leaf(segments []string, operand dictionary.Operand, test dictionary.Test) evalFunc {
	if operand == dictionary.OperandPresence {
		if len(segments) == 0 {
			return func(_ interface{}, present bool) bool { return test(present) }
		}
		return func(v interface{}, _ bool) bool {
			_, ok := Resolve(v, segments)
			return test(ok)
		}
	}

	if len(segments) == 0 {
		return func(v interface{}, _ bool) bool { return test(v) }
	}
	return func(v interface{}, _ bool) bool {
		value, _ := Resolve(v, segments)
		return test(value)
	}
}

func allOf(fns []evalFunc) evalFunc {
	switch len(fns) {
	case 0:
		return func(interface{}, bool) bool { return true }
	case 1:
		return fns[0]
	case 2:
		a, b := fns[0], fns[1]
		return func(v interface{}, present bool) bool { return a(v, present) && b(v, present) }
	default:
		return func(v interface{}, present bool) bool {
			for _, fn := range fns {
				if !fn(v, present) {
					return false
				}
			}
			return true
		}
	}
}

func anyOf(fns []evalFunc) evalFunc {
	switch len(fns) {
	case 0:
		return func(interface{}, bool) bool { return false }
	case 1:
		return fns[0]
	default:
		return func(v interface{}, present bool) bool {
			for _, fn := range fns {
				if fn(v, present) {
					return true
				}
			}
			return false
		}
	}
}

// isConditionMap reports whether every key of a non-empty mapping is a
// comparator name.
func isConditionMap(entries []descriptor.E, dict *dictionary.Dictionary) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !dict.Has(e.Key) {
			return false
		}
	}
	return true
}

func isComposite(v interface{}) bool {
	if _, ok := descriptor.Entries(v); ok {
		return true
	}
	_, ok := descriptor.Sequence(v)
	return ok
}

func childLoc(loc, key string) string {
	return loc + "." + key
}
