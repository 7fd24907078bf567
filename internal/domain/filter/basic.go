package filter

import (
	"cmp"
	"fmt"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

// BasicOp is an ordering/equality comparison.
type BasicOp string

const (
	OpEqual              BasicOp = "eq"
	OpNotEqual           BasicOp = "neq"
	OpGreaterThan        BasicOp = "gt"
	OpGreaterThanOrEqual BasicOp = "gte"
	OpLessThan           BasicOp = "lt"
	OpLessThanOrEqual    BasicOp = "lte"
)

func (op BasicOp) valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return true
	}
	return false
}

// BasicFilter compares a value against a fixed operand using its ordering,
// so two values that compare equal are indistinguishable to it.
type BasicFilter[T any] struct {
	value   T
	op      BasicOp
	compare func(a, b T) int
}

// NewBasic builds a filter for a naturally ordered type. NaN targets sort
// above every number, as in PostgreSQL.
func NewBasic[T cmp.Ordered](op BasicOp, value T) (*BasicFilter[T], error) {
	return NewBasicFunc(op, value, compareNaNLast[T])
}

// compareNaNLast is cmp.Compare with NaN ordered last and equal to itself.
func compareNaNLast[T cmp.Ordered](a, b T) int {
	aNaN, bNaN := a != a, b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(a, b)
}

// NewBasicFunc builds a filter for a type with its own ordering,
// e.g. NewBasicFunc(OpLessThan, deadline, time.Time.Compare).
func NewBasicFunc[T any](op BasicOp, value T, compare func(a, b T) int) (*BasicFilter[T], error) {
	if op == "" {
		return nil, apperror.NewNullArgument("operation")
	}
	if !op.valid() {
		return nil, apperror.NewInvalidArgument("operation", fmt.Sprintf("unknown basic operation %q", op))
	}
	if compare == nil {
		return nil, apperror.NewNullArgument("compare")
	}
	if isNil(value) {
		return nil, apperror.NewNullArgument("value")
	}
	if isNaN(value) {
		return nil, apperror.NewInvalidArgument("value", "NaN is not ordered")
	}
	return &BasicFilter[T]{value: value, op: op, compare: compare}, nil
}

func Equal[T cmp.Ordered](value T) (*BasicFilter[T], error) { return NewBasic(OpEqual, value) }

func NotEqual[T cmp.Ordered](value T) (*BasicFilter[T], error) { return NewBasic(OpNotEqual, value) }

func GreaterThan[T cmp.Ordered](value T) (*BasicFilter[T], error) {
	return NewBasic(OpGreaterThan, value)
}

func GreaterThanOrEqual[T cmp.Ordered](value T) (*BasicFilter[T], error) {
	return NewBasic(OpGreaterThanOrEqual, value)
}

func LessThan[T cmp.Ordered](value T) (*BasicFilter[T], error) { return NewBasic(OpLessThan, value) }

func LessThanOrEqual[T cmp.Ordered](value T) (*BasicFilter[T], error) {
	return NewBasic(OpLessThanOrEqual, value)
}

// Value returns the operand.
func (f *BasicFilter[T]) Value() T { return f.value }

// Op returns the comparison.
func (f *BasicFilter[T]) Op() BasicOp { return f.op }

// Check reports whether compare(v, value) satisfies the operation.
func (f *BasicFilter[T]) Check(v T) bool {
	c := f.compare(v, f.value)
	switch f.op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterThanOrEqual:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessThanOrEqual:
		return c <= 0
	default:
		panic(apperror.NewUnreachable("basic operation", f.op))
	}
}

// Compile returns the comparison of field against the operand.
func (f *BasicFilter[T]) Compile(field string) (expr.Predicate, error) {
	path, err := fieldPath(field)
	if err != nil {
		return nil, err
	}
	col, lit := expr.Col(path...), expr.Lit(f.value)

	switch f.op {
	case OpEqual:
		return expr.Eq(col, lit), nil
	case OpNotEqual:
		return expr.Ne(col, lit), nil
	case OpGreaterThan:
		return expr.Gt(col, lit), nil
	case OpGreaterThanOrEqual:
		return expr.Ge(col, lit), nil
	case OpLessThan:
		return expr.Lt(col, lit), nil
	case OpLessThanOrEqual:
		return expr.Le(col, lit), nil
	default:
		panic(apperror.NewUnreachable("basic operation", f.op))
	}
}

func (f *BasicFilter[T]) String() string {
	return fmt.Sprintf("%s %v", f.op, f.value)
}
