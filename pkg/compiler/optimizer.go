package compiler

import (
	"math"
	"sort"

	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/dictionary"
)

// Estimate is the static cost model of a conjunction member.
type Estimate struct {
	// Cost is the relative expected evaluation work.
	Cost float64
	// Pass is the estimated probability that the member returns true.
	Pass float64
}

// Rank orders conjunction members: lower ranks run first. A member that never
// fails ranks last.
func (e Estimate) Rank() float64 {
	fail := 1 - e.Pass
	if fail <= 0 {
		return math.Inf(1)
	}
	return e.Cost / fail
}

// Per-segment cost of resolving a field path.
const segmentCost = 0.5

// leafEstimate estimates a single comparator test from its kind, its expected
// argument and the number of path segments it resolves.
func leafEstimate(kind dictionary.Kind, expected interface{}, segments int) Estimate {
	var est Estimate
	switch kind {
	case dictionary.KindPresence, dictionary.KindTouched:
		est = Estimate{Cost: 1, Pass: 0.8}
	case dictionary.KindType:
		est = Estimate{Cost: 1.5, Pass: 0.5}
	case dictionary.KindEquality:
		est = Estimate{Cost: 2, Pass: 0.1}
		if _, ok := descriptor.Entries(expected); ok {
			est.Cost = 8
		} else if _, ok := descriptor.Sequence(expected); ok {
			est.Cost = 8
		}
	case dictionary.KindOrdering:
		est = Estimate{Cost: 2.5, Pass: 0.5}
	case dictionary.KindPrefix, dictionary.KindSuffix:
		est = Estimate{Cost: 3 + argumentLength(expected)/16, Pass: 0.25}
	case dictionary.KindSubstring:
		est = Estimate{Cost: 6 + argumentLength(expected)/8, Pass: 0.3}
	default:
		est = Estimate{Cost: 10, Pass: 0.5}
	}
	est.Cost += segmentCost * float64(segments)
	return est
}

func argumentLength(v interface{}) float64 {
	s, _ := dictionary.AsString(v)
	return float64(len(s))
}

// conjunctionEstimate estimates members evaluated in order with short-circuit
// AND: each member only runs when all earlier ones passed.
func conjunctionEstimate(members []member) Estimate {
	est := Estimate{Cost: 0, Pass: 1}
	for _, m := range members {
		est.Cost += est.Pass * m.plan.Estimate.Cost
		est.Pass *= m.plan.Estimate.Pass
	}
	return est
}

// disjunctionEstimate estimates members evaluated in order with short-circuit
// OR: each member only runs when all earlier ones failed.
func disjunctionEstimate(members []member) Estimate {
	fail := 1.0
	cost := 0.0
	for _, m := range members {
		cost += fail * m.plan.Estimate.Cost
		fail *= 1 - m.plan.Estimate.Pass
	}
	return Estimate{Cost: cost, Pass: 1 - fail}
}

// strategy decides the evaluation order of a conjunction's members.
type strategy interface {
	name() string
	order(members []member) []member
}

// declarationOrder keeps members in the order they were declared.
type declarationOrder struct{}

func (declarationOrder) name() string { return "declaration" }

func (declarationOrder) order(members []member) []member { return members }

// costOrder sorts members by ascending rank. The sort is stable, so members
// with equal rank keep declaration order.
type costOrder struct{}

func (costOrder) name() string { return "cost" }

func (costOrder) order(members []member) []member {
	out := make([]member, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].plan.Estimate.Rank() < out[j].plan.Estimate.Rank()
	})
	return out
}
