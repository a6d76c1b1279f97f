package compiler

import (
	"fmt"
	"strings"
)

// Op is the kind of a plan node.
type Op string

const (
	// OpTest is a single comparator test.
	OpTest Op = "test"
	// OpAll is a short-circuit conjunction.
	OpAll Op = "all"
	// OpAny is a short-circuit disjunction.
	OpAny Op = "any"
	// OpNot inverts its only child.
	OpNot Op = "not"
	// OpScope resolves Path and evaluates its only child against the result.
	OpScope Op = "scope"
)

// Plan is an inspectable description of a compiled query. Children appear in
// evaluation order.
type Plan struct {
	Op         Op          `json:"op"`
	Path       string      `json:"path,omitempty"`
	Comparator string      `json:"comparator,omitempty"`
	Argument   interface{} `json:"argument,omitempty"`
	Estimate   Estimate    `json:"estimate"`
	Children   []*Plan     `json:"children,omitempty"`
}

// Tests returns the comparator tests of the plan in evaluation order.
func (p *Plan) Tests() []*Plan {
	var out []*Plan
	p.walk(func(n *Plan) {
		if n.Op == OpTest {
			out = append(out, n)
		}
	})
	return out
}

func (p *Plan) walk(fn func(*Plan)) {
	fn(p)
	for _, c := range p.Children {
		c.walk(fn)
	}
}

// String renders the plan as an indented tree.
func (p *Plan) String() string {
	var b strings.Builder
	p.write(&b, 0)
	return b.String()
}

func (p *Plan) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(string(p.Op))
	switch p.Op {
	case OpTest:
		if p.Path != "" {
			fmt.Fprintf(b, " %s", p.Path)
		}
		fmt.Fprintf(b, " %s %s", p.Comparator, formatArgument(p.Argument))
	case OpScope:
		fmt.Fprintf(b, " %s", p.Path)
	}
	fmt.Fprintf(b, "  [cost=%.2f pass=%.2f]\n", p.Estimate.Cost, p.Estimate.Pass)
	for _, c := range p.Children {
		c.write(b, depth+1)
	}
}

func formatArgument(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
