package celengine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
	"sieve/internal/domain/filter"
	"sieve/internal/domain/spec"
)

type color string

type audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type place struct {
	audit
	ID       uuid.UUID       `db:"id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Rooms    int32           `db:"rooms"`
	Tags     []color         `db:"tags"`
	Location filter.Location `db:"location"`
	Note     *string         `db:"note"`
	internal string
	Skipped  string `db:"-"`
}

func TestRecord_Struct(t *testing.T) {
	id := uuid.MustParse("0190f1c2-7b7a-7cc0-8000-000000000001")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := place{
		audit:    audit{CreatedAt: at},
		ID:       id,
		Name:     "Cafe",
		Price:    decimal.RequireFromString("12.5"),
		Rooms:    3,
		Tags:     []color{"RED"},
		Location: filter.Location{Latitude: 45.5, Longitude: -73.5, Address: "Main St"},
	}

	r, err := Record(&p)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"created_at": at,
		"id":         id.String(),
		"name":       "Cafe",
		"price":      12.5,
		"rooms":      int64(3),
		"tags":       []any{"RED"},
		"location":   map[string]any{"latitude": 45.5, "longitude": -73.5, "address": "Main St"},
		"note":       nil,
	}, r)
}

func TestRecord_Errors(t *testing.T) {
	_, err := Record(nil)
	assert.True(t, apperror.IsNullArgument(err))

	var p *place
	_, err = Record(p)
	assert.True(t, apperror.IsNullArgument(err))

	_, err = Record(42)
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestRecord_MatchesStructs(t *testing.T) {
	e := newEngine(t)
	s := spec.And(
		filter.Must(spec.Compile(filter.Must(filter.ContainsAll[color]("RED")), "tags")),
		filter.Must(spec.Compile(filter.Must(filter.Within(filter.Location{Latitude: 45.5, Longitude: -73.5}, 1)), "location")),
		filter.Must(spec.Compile(filter.Must(filter.GreaterThan[int32](2)), "rooms")),
	)
	prg, err := e.Compile(s)
	require.NoError(t, err)

	p := place{Rooms: 3, Tags: []color{"RED", "BLUE"}, Location: filter.Location{Latitude: 45.501, Longitude: -73.501}}
	r, err := Record(p)
	require.NoError(t, err)
	ok, err := prg.Match(r)
	require.NoError(t, err)
	assert.True(t, ok)

	p.Tags = nil
	r, err = Record(p)
	require.NoError(t, err)
	ok, err = prg.Match(r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRenderLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{"a\"b", `"a\"b"`},
		{5.0, "5.0"},
		{0.25, "0.25"},
		{-1.5, "(-1.5)"},
		{1e21, "1e+21"},
		{math.Copysign(0, -1), "(-0.0)"},
		{float32(0.5), "0.5"},
		{7, "7"},
		{int64(-7), "(-7)"},
		{uint8(7), "7u"},
		{decimal.RequireFromString("9.99"), "9.99"},
		{time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), `timestamp("2024-03-01T12:00:00Z")`},
		{color("RED"), `"RED"`},
		{uuid.MustParse("0190f1c2-7b7a-7cc0-8000-000000000001"), `"0190f1c2-7b7a-7cc0-8000-000000000001"`},
	}

	for _, tt := range tests {
		got, err := renderLiteral(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []any{math.NaN(), math.Inf(1), struct{}{}} {
		_, err := renderLiteral(bad)
		assert.True(t, apperror.IsInvalidArgument(err), "%v", bad)
	}
}

func TestRenderPredicate_Distance(t *testing.T) {
	src, err := renderPredicate(expr.Le(filter.DistanceExpr(filter.Location{}, "location"), expr.Lit(5.0)))
	require.NoError(t, err)

	for _, fn := range []string{"sin(", "cos(", "sqrt(", "atan2("} {
		assert.Contains(t, src, fn)
	}
	assert.Contains(t, src, "location.latitude")
	assert.True(t, strings.HasPrefix(src, "compare("), src)
	assert.True(t, strings.HasSuffix(src, ", 5.0) <= 0"), src)
}

func TestRenderPredicate_CallArity(t *testing.T) {
	_, err := renderExpr(expr.Call{Func: expr.FuncAtan2, Args: []expr.Expr{expr.Lit(1.0)}})
	assert.True(t, apperror.IsInvalidArgument(err))

	_, err = renderExpr(expr.Call{Func: "LOG", Args: []expr.Expr{expr.Lit(1.0)}})
	assert.True(t, apperror.IsUnreachable(err))
}
