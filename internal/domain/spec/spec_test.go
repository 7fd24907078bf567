package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/core/expr"
)

var (
	a = Of(expr.Eq(expr.Col("a"), expr.Lit(1)))
	b = Of(expr.Eq(expr.Col("b"), expr.Lit(2)))
	c = Of(expr.Eq(expr.Col("c"), expr.Lit(3)))
	d = Of(expr.Eq(expr.Col("d"), expr.Lit(4)))
)

func pred(t *testing.T, s Spec) expr.Predicate {
	t.Helper()
	p, ok := s.Predicate()
	require.True(t, ok, "spec is empty")
	return p
}

func TestAnd(t *testing.T) {
	assert.True(t, And().IsEmpty())
	assert.True(t, And(None, None).IsEmpty())
	assert.Equal(t, a, And(a))
	assert.Equal(t, a, And(None, a, None))
	assert.Equal(t, expr.And{Terms: []expr.Predicate{pred(t, a), pred(t, b)}}, pred(t, And(a, b)))

	specs := []Spec{a, b, c}
	assert.Equal(t, And(a, b, c), And(specs...))
}

func TestAnd_Flattens(t *testing.T) {
	got := pred(t, And(And(a, b), c))
	assert.Equal(t, expr.And{Terms: []expr.Predicate{pred(t, a), pred(t, b), pred(t, c)}}, got)

	// OR nodes are kept intact inside AND.
	got = pred(t, And(Or(a, b), c))
	assert.Equal(t, expr.And{Terms: []expr.Predicate{pred(t, Or(a, b)), pred(t, c)}}, got)
}

func TestOr(t *testing.T) {
	assert.True(t, Or().IsEmpty())
	assert.Equal(t, b, Or(None, b))
	assert.Equal(t, expr.Or{Terms: []expr.Predicate{pred(t, a), pred(t, b), pred(t, c)}}, pred(t, Or(a, Or(b, c))))
}

func TestNot(t *testing.T) {
	assert.True(t, Not(None).IsEmpty())
	assert.Equal(t, expr.Not{Term: pred(t, a)}, pred(t, Not(a)))
}

func TestAndOfOrs(t *testing.T) {
	got := AndOfOrs([]Spec{a, b}, []Spec{c, d})
	want := expr.And{Terms: []expr.Predicate{
		expr.Or{Terms: []expr.Predicate{pred(t, a), pred(t, b)}},
		expr.Or{Terms: []expr.Predicate{pred(t, c), pred(t, d)}},
	}}
	assert.Equal(t, want, pred(t, got))

	assert.Equal(t, a, AndOfOrs([]Spec{a}, []Spec{None}))
	assert.True(t, AndOfOrs().IsEmpty())
	assert.True(t, AndOfOrs(nil, []Spec{None}).IsEmpty())
}

func TestOrOfAnds(t *testing.T) {
	got := OrOfAnds([]Spec{a, b}, []Spec{c, d})
	want := expr.Or{Terms: []expr.Predicate{
		expr.And{Terms: []expr.Predicate{pred(t, a), pred(t, b)}},
		expr.And{Terms: []expr.Predicate{pred(t, c), pred(t, d)}},
	}}
	assert.Equal(t, want, pred(t, got))
	assert.True(t, OrOfAnds().IsEmpty())
}

func TestAndIfOrIf(t *testing.T) {
	assert.Equal(t, a, AndIf(a, false, b))
	assert.Equal(t, a, AndIf(a, true, None))
	assert.Equal(t, And(a, b), AndIf(a, true, b))
	assert.Equal(t, b, AndIf(None, true, b))

	assert.Equal(t, a, OrIf(a, false, b))
	assert.Equal(t, a, OrIf(a, true, None))
	assert.Equal(t, Or(a, b), OrIf(a, true, b))
}

func TestAlwaysTrueFalse(t *testing.T) {
	assert.Equal(t, expr.True{}, pred(t, AlwaysTrue()))
	assert.Equal(t, expr.False{}, pred(t, AlwaysFalse()))
	assert.False(t, AlwaysTrue().IsEmpty())
	assert.Equal(t, "<none>", None.String())
	assert.Equal(t, "TRUE", AlwaysTrue().String())
}

func TestOf_Nil(t *testing.T) {
	assert.True(t, Of(nil).IsEmpty())
	assert.Equal(t, None, Spec{})
}

type stubCompiler struct {
	pred expr.Predicate
	err  error
}

func (s stubCompiler) Compile(field string) (expr.Predicate, error) { return s.pred, s.err }

func TestCompile(t *testing.T) {
	s, err := Compile(stubCompiler{pred: expr.True{}}, "x")
	require.NoError(t, err)
	assert.Equal(t, AlwaysTrue(), s)

	boom := errors.New("boom")
	s, err = Compile(stubCompiler{err: boom}, "x")
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.IsEmpty())
}
