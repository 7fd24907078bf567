package expr

import (
	"fmt"
	"strings"
)

// Predicate is a boolean condition over a record.
type Predicate interface {
	predicateNode()
	String() string
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
)

// Compare compares two expressions.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

// Contains holds when the multi-valued Field has Value among its elements.
type Contains struct {
	Field Field
	Value any
}

func (Contains) predicateNode() {}

func (c Contains) String() string {
	return c.Field.String() + " CONTAINS " + Lit(c.Value).String()
}

// And is a conjunction. An empty And is true.
type And struct {
	Terms []Predicate
}

func (And) predicateNode() {}

func (a And) String() string { return joinTerms(a.Terms, " AND ", "TRUE") }

// Or is a disjunction. An empty Or is false.
type Or struct {
	Terms []Predicate
}

func (Or) predicateNode() {}

func (o Or) String() string { return joinTerms(o.Terms, " OR ", "FALSE") }

// Not negates its term.
type Not struct {
	Term Predicate
}

func (Not) predicateNode() {}

func (n Not) String() string { return "NOT (" + n.Term.String() + ")" }

// True matches every record.
type True struct{}

func (True) predicateNode() {}
func (True) String() string { return "TRUE" }

// False matches no record.
type False struct{}

func (False) predicateNode() {}
func (False) String() string { return "FALSE" }

func joinTerms(terms []Predicate, sep, empty string) string {
	if len(terms) == 0 {
		return empty
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// --- Constructors ---

func Eq(l, r Expr) Compare { return Compare{Op: OpEq, Left: l, Right: r} }
func Ne(l, r Expr) Compare { return Compare{Op: OpNe, Left: l, Right: r} }
func Gt(l, r Expr) Compare { return Compare{Op: OpGt, Left: l, Right: r} }
func Ge(l, r Expr) Compare { return Compare{Op: OpGe, Left: l, Right: r} }
func Lt(l, r Expr) Compare { return Compare{Op: OpLt, Left: l, Right: r} }
func Le(l, r Expr) Compare { return Compare{Op: OpLe, Left: l, Right: r} }

// AllOf returns the conjunction of terms, or the term itself when there is one.
func AllOf(terms ...Predicate) Predicate {
	if len(terms) == 1 {
		return terms[0]
	}
	return And{Terms: terms}
}

// AnyOf returns the disjunction of terms, or the term itself when there is one.
func AnyOf(terms ...Predicate) Predicate {
	if len(terms) == 1 {
		return terms[0]
	}
	return Or{Terms: terms}
}

// Fields returns every field referenced by p, in first-seen order without duplicates.
func Fields(p Predicate) []Field {
	seen := make(map[string]struct{})
	var out []Field
	add := func(f Field) {
		if _, ok := seen[f.Name()]; ok {
			return
		}
		seen[f.Name()] = struct{}{}
		out = append(out, f)
	}
	walkPredicate(p, add)
	return out
}

func walkPredicate(p Predicate, visit func(Field)) {
	switch n := p.(type) {
	case Compare:
		walkExpr(n.Left, visit)
		walkExpr(n.Right, visit)
	case Contains:
		visit(n.Field)
	case And:
		for _, t := range n.Terms {
			walkPredicate(t, visit)
		}
	case Or:
		for _, t := range n.Terms {
			walkPredicate(t, visit)
		}
	case Not:
		walkPredicate(n.Term, visit)
	case True, False, nil:
	default:
		panic(fmt.Sprintf("expr: unknown predicate %T", p))
	}
}

func walkExpr(e Expr, visit func(Field)) {
	switch n := e.(type) {
	case Field:
		visit(n)
	case Binary:
		walkExpr(n.Left, visit)
		walkExpr(n.Right, visit)
	case Call:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case Literal, nil:
	default:
		panic(fmt.Sprintf("expr: unknown expression %T", e))
	}
}
