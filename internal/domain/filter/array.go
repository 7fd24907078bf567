package filter

import (
	"cmp"
	"fmt"
	"slices"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

// ArrayOp is a set-containment relation between the filter values and a target collection.
type ArrayOp string

const (
	OpContainsAll    ArrayOp = "contains_all"
	OpContainsAny    ArrayOp = "contains_any"
	OpContainsNone   ArrayOp = "contains_none"
	OpNotContainsAll ArrayOp = "not_contains_all"
)

func (op ArrayOp) valid() bool {
	switch op {
	case OpContainsAll, OpContainsAny, OpContainsNone, OpNotContainsAll:
		return true
	}
	return false
}

// ArrayFilter tests a target collection against a fixed, non-empty set of values.
type ArrayFilter[T cmp.Ordered] struct {
	values []T // sorted, unique
	op     ArrayOp
}

// NewArray builds an ArrayFilter. Duplicate values collapse; the set must not be empty.
func NewArray[T cmp.Ordered](op ArrayOp, values []T) (*ArrayFilter[T], error) {
	if op == "" {
		return nil, apperror.NewNullArgument("operation")
	}
	if !op.valid() {
		return nil, apperror.NewInvalidArgument("operation", fmt.Sprintf("unknown array operation %q", op))
	}
	if len(values) == 0 {
		return nil, apperror.NewInvalidArgument("filterValues", "must not be empty")
	}
	for i, v := range values {
		if isNaN(v) {
			return nil, apperror.NewInvalidArgument("filterValues", "NaN is not a valid member").WithDetail("index", i)
		}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return &ArrayFilter[T]{values: slices.Compact(sorted), op: op}, nil
}

func ContainsAll[T cmp.Ordered](values ...T) (*ArrayFilter[T], error) {
	return NewArray(OpContainsAll, values)
}

func ContainsAny[T cmp.Ordered](values ...T) (*ArrayFilter[T], error) {
	return NewArray(OpContainsAny, values)
}

func ContainsNone[T cmp.Ordered](values ...T) (*ArrayFilter[T], error) {
	return NewArray(OpContainsNone, values)
}

func NotContainsAll[T cmp.Ordered](values ...T) (*ArrayFilter[T], error) {
	return NewArray(OpNotContainsAll, values)
}

// Values returns a copy of the filter set in ascending order.
func (f *ArrayFilter[T]) Values() []T { return slices.Clone(f.values) }

// Op returns the containment relation.
func (f *ArrayFilter[T]) Op() ArrayOp { return f.op }

// Check evaluates the relation against target. A nil target is an empty collection.
func (f *ArrayFilter[T]) Check(target []T) bool {
	set := make(map[T]struct{}, len(target))
	for _, v := range target {
		set[v] = struct{}{}
	}

	matched := 0
	for _, v := range f.values {
		if _, ok := set[v]; ok {
			matched++
		}
	}

	switch f.op {
	case OpContainsAll:
		return matched == len(f.values)
	case OpContainsAny:
		return matched > 0
	case OpContainsNone:
		return matched == 0
	case OpNotContainsAll:
		return matched != len(f.values)
	default:
		panic(apperror.NewUnreachable("array operation", f.op))
	}
}

// Compile expands the relation into per-element membership tests on a multi-valued field:
// CONTAINS_ALL is an AND of memberships, CONTAINS_ANY an OR, CONTAINS_NONE an AND of
// negated memberships and NOT_CONTAINS_ALL the negated AND.
func (f *ArrayFilter[T]) Compile(field string) (expr.Predicate, error) {
	path, err := fieldPath(field)
	if err != nil {
		return nil, err
	}
	col := expr.Col(path...)

	members := make([]expr.Predicate, len(f.values))
	for i, v := range f.values {
		members[i] = expr.Contains{Field: col, Value: v}
	}

	switch f.op {
	case OpContainsAll:
		return expr.AllOf(members...), nil
	case OpContainsAny:
		return expr.AnyOf(members...), nil
	case OpContainsNone:
		negated := make([]expr.Predicate, len(members))
		for i, m := range members {
			negated[i] = expr.Not{Term: m}
		}
		return expr.AllOf(negated...), nil
	case OpNotContainsAll:
		return expr.Not{Term: expr.AllOf(members...)}, nil
	default:
		panic(apperror.NewUnreachable("array operation", f.op))
	}
}

func (f *ArrayFilter[T]) String() string {
	return fmt.Sprintf("%s %v", f.op, f.values)
}
