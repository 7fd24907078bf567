package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want string
	}{
		{
			name: "compare",
			pred: Ge(Col("price"), Lit(10)),
			want: "price >= 10",
		},
		{
			name: "string literal",
			pred: Eq(Col("name"), Lit("Montreal")),
			want: `name = "Montreal"`,
		},
		{
			name: "contains",
			pred: Contains{Field: Col("tags"), Value: "RED"},
			want: `tags CONTAINS "RED"`,
		},
		{
			name: "arithmetic",
			pred: Le(Mul(Lit(6371.0), Atan2(Sqrt(Col("a")), Lit(1.5))), Lit(5.0)),
			want: "(6371 * ATAN2(SQRT(a), 1.5)) <= 5",
		},
		{
			name: "connectives",
			pred: Not{Term: Or{Terms: []Predicate{True{}, And{}}}},
			want: "NOT ((TRUE OR TRUE))",
		},
		{
			name: "empty or",
			pred: Or{},
			want: "FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred.String())
		})
	}
}

func TestAllOfAnyOf_SingleTermUnwrapped(t *testing.T) {
	p := Eq(Col("a"), Lit(1))

	assert.Equal(t, p, AllOf(p))
	assert.Equal(t, p, AnyOf(p))
	assert.Equal(t, And{Terms: []Predicate{p, p}}, AllOf(p, p))
	assert.Equal(t, Or{Terms: []Predicate{p, p}}, AnyOf(p, p))
}

func TestFields(t *testing.T) {
	p := And{Terms: []Predicate{
		Le(Add(Col("location", "latitude"), Col("location", "longitude")), Lit(1.0)),
		Not{Term: Contains{Field: Col("tags"), Value: "x"}},
		Gt(Col("location", "latitude"), Lit(0.0)),
	}}

	var names []string
	for _, f := range Fields(p) {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"location.latitude", "location.longitude", "tags"}, names)
}

func TestFuncArity(t *testing.T) {
	assert.Equal(t, 1, FuncSin.Arity())
	assert.Equal(t, 1, FuncSqrt.Arity())
	assert.Equal(t, 2, FuncAtan2.Arity())
	assert.Equal(t, -1, Func("TAN").Arity())
}

func TestCol_CopiesPath(t *testing.T) {
	path := []string{"a", "b"}
	f := Col(path...)
	path[0] = "z"
	assert.Equal(t, "a.b", f.Name())
}
