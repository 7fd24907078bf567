// Package spec combines compiled predicates with boolean algebra.
//
// A Spec is an optional predicate. The zero Spec (None) means "no constraint":
// it is skipped by And and Or, stays None under Not, and adds no WHERE clause
// when handed to a persistence engine. AlwaysTrue and AlwaysFalse are real
// predicates, distinct from None.
//
// The package never inspects filter kinds; it only sees expr.Predicate values.
package spec

import (
	"sieve/internal/core/expr"
)

// Spec is an immutable, possibly empty compiled predicate.
type Spec struct {
	pred expr.Predicate
}

// None is the empty Spec.
var None = Spec{}

// Of wraps a predicate. A nil predicate yields None.
func Of(p expr.Predicate) Spec {
	return Spec{pred: p}
}

// Compiler is implemented by every compilable filter.
type Compiler interface {
	Compile(field string) (expr.Predicate, error)
}

// Compile compiles c over field and wraps the result.
func Compile(c Compiler, field string) (Spec, error) {
	p, err := c.Compile(field)
	if err != nil {
		return None, err
	}
	return Of(p), nil
}

// IsEmpty reports whether s is None.
func (s Spec) IsEmpty() bool { return s.pred == nil }

// Predicate returns the wrapped predicate and whether there is one.
func (s Spec) Predicate() (expr.Predicate, bool) { return s.pred, s.pred != nil }

func (s Spec) String() string {
	if s.pred == nil {
		return "<none>"
	}
	return s.pred.String()
}

// AlwaysTrue matches every record.
func AlwaysTrue() Spec { return Of(expr.True{}) }

// AlwaysFalse matches no record.
func AlwaysFalse() Spec { return Of(expr.False{}) }

// And folds specs with AND, skipping None. It returns None when nothing is left
// and the single remaining spec unchanged when only one is.
func And(specs ...Spec) Spec {
	terms := collect(specs, func(p expr.Predicate) ([]expr.Predicate, bool) {
		a, ok := p.(expr.And)
		return a.Terms, ok
	})
	switch len(terms) {
	case 0:
		return None
	case 1:
		return Of(terms[0])
	default:
		return Of(expr.And{Terms: terms})
	}
}

// Or folds specs with OR, skipping None, symmetric to And.
func Or(specs ...Spec) Spec {
	terms := collect(specs, func(p expr.Predicate) ([]expr.Predicate, bool) {
		o, ok := p.(expr.Or)
		return o.Terms, ok
	})
	switch len(terms) {
	case 0:
		return None
	case 1:
		return Of(terms[0])
	default:
		return Of(expr.Or{Terms: terms})
	}
}

// Not negates s. Negating None stays None: no constraint remains no constraint.
func Not(s Spec) Spec {
	if s.IsEmpty() {
		return None
	}
	return Of(expr.Not{Term: s.pred})
}

// AndOfOrs ORs each group and ANDs the results: (g1a OR g1b) AND (g2a OR g2b) ...
func AndOfOrs(groups ...[]Spec) Spec {
	ors := make([]Spec, len(groups))
	for i, g := range groups {
		ors[i] = Or(g...)
	}
	return And(ors...)
}

// OrOfAnds ANDs each group and ORs the results: (g1a AND g1b) OR (g2a AND g2b) ...
func OrOfAnds(groups ...[]Spec) Spec {
	ands := make([]Spec, len(groups))
	for i, g := range groups {
		ands[i] = And(g...)
	}
	return Or(ands...)
}

// AndIf returns And(base, toAdd) when cond holds and toAdd is not None, base otherwise.
func AndIf(base Spec, cond bool, toAdd Spec) Spec {
	if !cond || toAdd.IsEmpty() {
		return base
	}
	return And(base, toAdd)
}

// OrIf returns Or(base, toAdd) when cond holds and toAdd is not None, base otherwise.
func OrIf(base Spec, cond bool, toAdd Spec) Spec {
	if !cond || toAdd.IsEmpty() {
		return base
	}
	return Or(base, toAdd)
}

// collect drops empty specs and splices nested nodes of the same connective.
func collect(specs []Spec, same func(expr.Predicate) ([]expr.Predicate, bool)) []expr.Predicate {
	var terms []expr.Predicate
	for _, s := range specs {
		if s.IsEmpty() {
			continue
		}
		if nested, ok := same(s.pred); ok && len(nested) > 0 {
			terms = append(terms, nested...)
			continue
		}
		terms = append(terms, s.pred)
	}
	return terms
}
