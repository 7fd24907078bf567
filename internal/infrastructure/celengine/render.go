package celengine

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds CEL keywords and reserved words that cannot name a field.
var reserved = map[string]struct{}{
	"true": {}, "false": {}, "null": {}, "in": {},
	"as": {}, "break": {}, "const": {}, "continue": {}, "else": {},
	"for": {}, "function": {}, "if": {}, "import": {}, "let": {},
	"loop": {}, "package": {}, "namespace": {}, "return": {},
	"var": {}, "void": {}, "while": {},
}

var compareOps = map[expr.CompareOp]string{
	expr.OpEq: "==",
	expr.OpNe: "!=",
	expr.OpGt: ">",
	expr.OpGe: ">=",
	expr.OpLt: "<",
	expr.OpLe: "<=",
}

var funcNames = map[expr.Func]string{
	expr.FuncSin:   "sin",
	expr.FuncCos:   "cos",
	expr.FuncSqrt:  "sqrt",
	expr.FuncAtan2: "atan2",
}

// renderPredicate turns p into CEL source.
func renderPredicate(p expr.Predicate) (string, error) {
	switch n := p.(type) {
	case expr.Compare:
		op, ok := compareOps[n.Op]
		if !ok {
			return "", apperror.NewUnreachable("comparison operator", n.Op)
		}
		l, err := renderExpr(n.Left)
		if err != nil {
			return "", err
		}
		r, err := renderExpr(n.Right)
		if err != nil {
			return "", err
		}
		if n.Op == expr.OpEq || n.Op == expr.OpNe {
			return l + " " + op + " " + r, nil
		}
		return "compare(" + l + ", " + r + ") " + op + " 0", nil

	case expr.Contains:
		f, err := renderField(n.Field)
		if err != nil {
			return "", err
		}
		v, err := renderLiteral(n.Value)
		if err != nil {
			return "", err
		}
		return "(" + v + " in " + f + ")", nil

	case expr.And:
		return renderJoined(n.Terms, " && ", "true")
	case expr.Or:
		return renderJoined(n.Terms, " || ", "false")

	case expr.Not:
		inner, err := renderPredicate(n.Term)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil

	case expr.True:
		return "true", nil
	case expr.False:
		return "false", nil
	default:
		return "", apperror.NewUnreachable("predicate", fmt.Sprintf("%T", p))
	}
}

func renderJoined(terms []expr.Predicate, sep, empty string) (string, error) {
	if len(terms) == 0 {
		return empty, nil
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		s, err := renderPredicate(t)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func renderExpr(e expr.Expr) (string, error) {
	switch n := e.(type) {
	case expr.Field:
		return renderField(n)
	case expr.Literal:
		return renderLiteral(n.Value)

	case expr.Binary:
		switch n.Op {
		case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv:
		default:
			return "", apperror.NewUnreachable("arithmetic operator", n.Op)
		}
		l, err := renderExpr(n.Left)
		if err != nil {
			return "", err
		}
		r, err := renderExpr(n.Right)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + string(n.Op) + " " + r + ")", nil

	case expr.Call:
		name, ok := funcNames[n.Func]
		if !ok {
			return "", apperror.NewUnreachable("function", n.Func)
		}
		if len(n.Args) != n.Func.Arity() {
			return "", apperror.NewInvalidArgument(string(n.Func),
				fmt.Sprintf("expects %d arguments, got %d", n.Func.Arity(), len(n.Args)))
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := renderExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return name + "(" + strings.Join(args, ", ") + ")", nil

	default:
		return "", apperror.NewUnreachable("expression", fmt.Sprintf("%T", e))
	}
}

func renderField(f expr.Field) (string, error) {
	if len(f.Path) == 0 {
		return "", apperror.NewNullArgument("field")
	}
	for _, seg := range f.Path {
		if !validIdent(seg) {
			return "", apperror.NewInvalidArgument("field", fmt.Sprintf("%q is not a valid identifier", f.Name()))
		}
	}
	return f.Name(), nil
}

func validIdent(s string) bool {
	if !identRe.MatchString(s) {
		return false
	}
	_, bad := reserved[s]
	return !bad
}

// renderLiteral writes v so that CEL parses it back to the same value.
// Doubles always carry a '.' or an exponent so they are not read as ints.
func renderLiteral(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		return strconv.Quote(x), nil
	case float64:
		return renderDouble(x)
	case float32:
		return renderDouble(float64(x))
	case int:
		return renderInt(int64(x)), nil
	case int8:
		return renderInt(int64(x)), nil
	case int16:
		return renderInt(int64(x)), nil
	case int32:
		return renderInt(int64(x)), nil
	case int64:
		return renderInt(x), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10) + "u", nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10) + "u", nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10) + "u", nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10) + "u", nil
	case uint64:
		return strconv.FormatUint(x, 10) + "u", nil
	case decimal.Decimal:
		return renderDouble(x.InexactFloat64())
	case time.Time:
		return "timestamp(" + strconv.Quote(x.UTC().Format(time.RFC3339Nano)) + ")", nil
	default:
		if s, ok := stringKind(v); ok {
			return strconv.Quote(s), nil
		}
		if st, ok := v.(fmt.Stringer); ok {
			// uuid.UUID and similar identifiers compare as strings.
			return strconv.Quote(st.String()), nil
		}
		return "", apperror.NewInvalidArgument("literal", fmt.Sprintf("unsupported type %T", v))
	}
}

// stringKind unwraps named string types such as enums.
func stringKind(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func renderDouble(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", apperror.NewInvalidArgument("literal", "non-finite number")
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if f < 0 || (f == 0 && math.Signbit(f)) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func renderInt(i int64) string {
	s := strconv.FormatInt(i, 10)
	if i < 0 {
		return "(" + s + ")"
	}
	return s
}
