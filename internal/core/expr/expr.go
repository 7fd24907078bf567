package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a numeric or scalar expression evaluated per record.
type Expr interface {
	exprNode()
	String() string
}

// ArithOp is a binary arithmetic operator.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
)

// Func names a primitive numeric function every engine must provide.
type Func string

const (
	FuncSin   Func = "SIN"
	FuncCos   Func = "COS"
	FuncSqrt  Func = "SQRT" // negative arguments are clamped to 0
	FuncAtan2 Func = "ATAN2"
)

// Arity returns the number of arguments the function takes.
func (f Func) Arity() int {
	switch f {
	case FuncSin, FuncCos, FuncSqrt:
		return 1
	case FuncAtan2:
		return 2
	default:
		return -1
	}
}

// Field references a (possibly nested) attribute of the target record.
type Field struct {
	Path []string
}

func (Field) exprNode() {}

// Name returns the dotted path.
func (f Field) Name() string { return strings.Join(f.Path, ".") }

func (f Field) String() string { return f.Name() }

// Literal is a constant operand.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

func (l Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Binary applies an arithmetic operator to two operands.
type Binary struct {
	Op    ArithOp
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

// Call applies a named function.
type Call struct {
	Func Func
	Args []Expr
}

func (Call) exprNode() {}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return string(c.Func) + "(" + strings.Join(args, ", ") + ")"
}

// --- Constructors ---

// Col builds a field reference from path segments.
func Col(path ...string) Field {
	return Field{Path: append([]string(nil), path...)}
}

// Lit wraps a constant.
func Lit(v any) Literal { return Literal{Value: v} }

func Add(l, r Expr) Binary { return Binary{Op: OpAdd, Left: l, Right: r} }
func Sub(l, r Expr) Binary { return Binary{Op: OpSub, Left: l, Right: r} }
func Mul(l, r Expr) Binary { return Binary{Op: OpMul, Left: l, Right: r} }
func Div(l, r Expr) Binary { return Binary{Op: OpDiv, Left: l, Right: r} }

func Sin(x Expr) Call      { return Call{Func: FuncSin, Args: []Expr{x}} }
func Cos(x Expr) Call      { return Call{Func: FuncCos, Args: []Expr{x}} }
func Sqrt(x Expr) Call     { return Call{Func: FuncSqrt, Args: []Expr{x}} }
func Atan2(y, x Expr) Call { return Call{Func: FuncAtan2, Args: []Expr{y, x}} }
