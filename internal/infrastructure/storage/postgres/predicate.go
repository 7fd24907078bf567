package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

var columnRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnResolver maps field paths of compiled predicates to SQL columns.
// By default the path segments are joined with "_" (location.latitude ->
// location_latitude). When a whitelist is set, any other column is rejected.
type ColumnResolver struct {
	overrides map[string]string
	allowed   map[string]struct{}
}

// ResolverOption configures a ColumnResolver.
type ResolverOption func(*ColumnResolver)

// WithOverride maps the dotted field path to an explicit column.
func WithOverride(path, column string) ResolverOption {
	return func(r *ColumnResolver) { r.overrides[path] = column }
}

// WithColumns restricts resolution to the given columns.
func WithColumns(columns ...string) ResolverOption {
	return func(r *ColumnResolver) {
		if r.allowed == nil {
			r.allowed = make(map[string]struct{}, len(columns))
		}
		for _, c := range columns {
			r.allowed[c] = struct{}{}
		}
	}
}

// NewColumnResolver creates a resolver.
func NewColumnResolver(opts ...ResolverOption) *ColumnResolver {
	r := &ColumnResolver{overrides: make(map[string]string)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the column for f.
func (r *ColumnResolver) Resolve(f expr.Field) (string, error) {
	if len(f.Path) == 0 {
		return "", apperror.NewNullArgument("field")
	}

	col, ok := r.overrides[f.Name()]
	if !ok {
		col = strings.Join(f.Path, "_")
	}
	if !columnRe.MatchString(col) {
		return "", apperror.NewInvalidArgument("field", fmt.Sprintf("invalid filter column: %s", f.Name()))
	}
	if r.allowed != nil {
		if _, ok := r.allowed[col]; !ok {
			return "", apperror.NewInvalidArgument("field", fmt.Sprintf("invalid filter column: %s", col))
		}
	}
	return col, nil
}

// ToSqlizer translates p into a squirrel condition. Column-versus-literal
// comparisons use squirrel's map conditions; arithmetic is rendered with
// PostgreSQL's sin, cos, sqrt and atan2 and float8 literals.
func ToSqlizer(p expr.Predicate, r *ColumnResolver) (squirrel.Sqlizer, error) {
	switch n := p.(type) {
	case expr.Compare:
		return compareSQL(n, r)

	case expr.Contains:
		col, err := r.Resolve(n.Field)
		if err != nil {
			return nil, err
		}
		// A NULL array contains nothing.
		return squirrel.Expr("COALESCE(? = ANY("+col+"), FALSE)", n.Value), nil

	case expr.And:
		if len(n.Terms) == 0 {
			return squirrel.Expr("TRUE"), nil
		}
		parts, err := toSqlizers(n.Terms, r)
		if err != nil {
			return nil, err
		}
		return squirrel.And(parts), nil

	case expr.Or:
		if len(n.Terms) == 0 {
			return squirrel.Expr("FALSE"), nil
		}
		parts, err := toSqlizers(n.Terms, r)
		if err != nil {
			return nil, err
		}
		return squirrel.Or(parts), nil

	case expr.Not:
		inner, err := ToSqlizer(n.Term, r)
		if err != nil {
			return nil, err
		}
		sql, args, err := inner.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build negated condition: %w", err)
		}
		return squirrel.Expr("NOT ("+sql+")", args...), nil

	case expr.True:
		return squirrel.Expr("TRUE"), nil
	case expr.False:
		return squirrel.Expr("FALSE"), nil
	default:
		return nil, apperror.NewUnreachable("predicate", fmt.Sprintf("%T", p))
	}
}

func toSqlizers(terms []expr.Predicate, r *ColumnResolver) ([]squirrel.Sqlizer, error) {
	parts := make([]squirrel.Sqlizer, len(terms))
	for i, t := range terms {
		s, err := ToSqlizer(t, r)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

var flipped = map[expr.CompareOp]expr.CompareOp{
	expr.OpEq: expr.OpEq,
	expr.OpNe: expr.OpNe,
	expr.OpGt: expr.OpLt,
	expr.OpGe: expr.OpLe,
	expr.OpLt: expr.OpGt,
	expr.OpLe: expr.OpGe,
}

func compareSQL(c expr.Compare, r *ColumnResolver) (squirrel.Sqlizer, error) {
	if _, ok := flipped[c.Op]; !ok {
		return nil, apperror.NewUnreachable("comparison operator", c.Op)
	}

	// literal op column is turned around so the map conditions apply.
	if lit, ok := c.Left.(expr.Literal); ok {
		if f, ok := c.Right.(expr.Field); ok {
			c = expr.Compare{Op: flipped[c.Op], Left: f, Right: lit}
		}
	}

	if f, ok := c.Left.(expr.Field); ok {
		if lit, ok := c.Right.(expr.Literal); ok {
			col, err := r.Resolve(f)
			if err != nil {
				return nil, err
			}
			switch c.Op {
			case expr.OpEq:
				return squirrel.Eq{col: lit.Value}, nil
			case expr.OpNe:
				return squirrel.NotEq{col: lit.Value}, nil
			case expr.OpGt:
				return squirrel.Gt{col: lit.Value}, nil
			case expr.OpGe:
				return squirrel.GtOrEq{col: lit.Value}, nil
			case expr.OpLt:
				return squirrel.Lt{col: lit.Value}, nil
			case expr.OpLe:
				return squirrel.LtOrEq{col: lit.Value}, nil
			}
		}
	}

	l, largs, err := operandSQL(c.Left, r)
	if err != nil {
		return nil, err
	}
	rs, rargs, err := operandSQL(c.Right, r)
	if err != nil {
		return nil, err
	}
	return squirrel.Expr(l+" "+string(c.Op)+" "+rs, append(largs, rargs...)...), nil
}

// operandSQL renders a comparison operand. A bare literal is a plain
// placeholder; inside arithmetic it is cast to float8.
func operandSQL(e expr.Expr, r *ColumnResolver) (string, []any, error) {
	if lit, ok := e.(expr.Literal); ok {
		return "?", []any{lit.Value}, nil
	}
	return exprSQL(e, r)
}

func exprSQL(e expr.Expr, r *ColumnResolver) (string, []any, error) {
	switch n := e.(type) {
	case expr.Field:
		col, err := r.Resolve(n)
		if err != nil {
			return "", nil, err
		}
		return col, nil, nil

	case expr.Literal:
		switch n.Value.(type) {
		case float64, float32, decimal.Decimal:
			return "?::float8", []any{n.Value}, nil
		default:
			return "?", []any{n.Value}, nil
		}

	case expr.Binary:
		switch n.Op {
		case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv:
		default:
			return "", nil, apperror.NewUnreachable("arithmetic operator", n.Op)
		}
		l, largs, err := exprSQL(n.Left, r)
		if err != nil {
			return "", nil, err
		}
		rs, rargs, err := exprSQL(n.Right, r)
		if err != nil {
			return "", nil, err
		}
		return "(" + l + " " + string(n.Op) + " " + rs + ")", append(largs, rargs...), nil

	case expr.Call:
		if n.Func.Arity() < 0 {
			return "", nil, apperror.NewUnreachable("function", n.Func)
		}
		if len(n.Args) != n.Func.Arity() {
			return "", nil, apperror.NewInvalidArgument(string(n.Func),
				fmt.Sprintf("expects %d arguments, got %d", n.Func.Arity(), len(n.Args)))
		}
		parts := make([]string, len(n.Args))
		var args []any
		for i, a := range n.Args {
			s, aargs, err := exprSQL(a, r)
			if err != nil {
				return "", nil, err
			}
			parts[i] = s
			args = append(args, aargs...)
		}
		if n.Func == expr.FuncSqrt {
			return "sqrt(GREATEST(" + parts[0] + ", 0))", args, nil
		}
		return strings.ToLower(string(n.Func)) + "(" + strings.Join(parts, ", ") + ")", args, nil

	default:
		return "", nil, apperror.NewUnreachable("expression", fmt.Sprintf("%T", e))
	}
}
