// Package celengine evaluates compiled predicates over in-memory records by
// translating them into CEL programs.
//
// Fields become CEL variables of dynamic type, so a record is a plain
// map[string]any (see Record for structs). The primitive functions sin, cos,
// sqrt and atan2 are bound to the math package, which keeps compiled distance
// expressions bit-identical to filter.Distance. Orderings go through compare,
// which sorts NaN above every number instead of failing.
package celengine

import (
	"context"
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
	"sieve/internal/domain/spec"
	"sieve/internal/infrastructure/cache"
	"sieve/pkg/logger"
)

// DefaultCacheSize is the number of compiled programs an Engine keeps.
const DefaultCacheSize = 256

// Engine compiles specs into CEL programs. It is safe for concurrent use.
type Engine struct {
	env       *cel.Env
	log       *logger.Logger
	cacheSize int
	programs  *cache.LoadingCache[*Program]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for compile failures.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCacheSize bounds the compiled program cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// NewEngine builds the base CEL environment.
func NewEngine(opts ...Option) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.CrossTypeNumericComparisons(true),
		unaryMath("sin", math.Sin),
		unaryMath("cos", math.Cos),
		unaryMath("sqrt", func(x float64) float64 { return math.Sqrt(max(0, x)) }),
		cel.Function("compare",
			cel.Overload("compare_dyn_dyn",
				[]*cel.Type{cel.DynType, cel.DynType}, cel.IntType,
				cel.BinaryBinding(compareNaNLast),
			),
		),
		cel.Function("atan2",
			cel.Overload("atan2_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType}, cel.DoubleType,
				cel.BinaryBinding(func(y, x ref.Val) ref.Val {
					yv, ok := y.(types.Double)
					if !ok {
						return types.MaybeNoSuchOverloadErr(y)
					}
					xv, ok := x.(types.Double)
					if !ok {
						return types.MaybeNoSuchOverloadErr(x)
					}
					return types.Double(math.Atan2(float64(yv), float64(xv)))
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	e := &Engine{env: env, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Default()
	}
	e.log = e.log.WithComponent("celengine")
	if e.cacheSize > 0 {
		if e.programs, err = cache.NewLoadingCache[*Program](e.cacheSize); err != nil {
			return nil, fmt.Errorf("create program cache: %w", err)
		}
	}
	return e, nil
}

func unaryMath(name string, fn func(float64) float64) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_double", []*cel.Type{cel.DoubleType}, cel.DoubleType,
			cel.UnaryBinding(func(v ref.Val) ref.Val {
				d, ok := v.(types.Double)
				if !ok {
					return types.MaybeNoSuchOverloadErr(v)
				}
				return types.Double(fn(float64(d)))
			}),
		),
	)
}

// compareNaNLast orders two comparable values, with NaN greatest and equal to
// itself.
func compareNaNLast(l, r ref.Val) ref.Val {
	lNaN, rNaN := isNaN(l), isNaN(r)
	switch {
	case lNaN && rNaN:
		return types.IntZero
	case lNaN:
		return types.IntOne
	case rNaN:
		return types.IntNegOne
	}
	c, ok := l.(traits.Comparer)
	if !ok {
		return types.MaybeNoSuchOverloadErr(l)
	}
	return c.Compare(r)
}

func isNaN(v ref.Val) bool {
	d, ok := v.(types.Double)
	return ok && math.IsNaN(float64(d))
}

// Program is a compiled spec ready for evaluation.
type Program struct {
	source string
	vars   []string
	prg    cel.Program
}

// Source returns the CEL source, empty for a spec without constraint.
func (p *Program) Source() string { return p.source }

// Match evaluates the program over record. A program compiled from an empty
// spec matches every record. Every root field referenced by the predicate must
// be present in record.
func (p *Program) Match(record map[string]any) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	for _, v := range p.vars {
		if _, ok := record[v]; !ok {
			return false, apperror.NewEvaluation(fmt.Sprintf("record has no field %q", v), nil)
		}
	}

	out, _, err := p.prg.Eval(normalizeMap(record))
	if err != nil {
		return false, apperror.NewEvaluation("evaluate "+p.source, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewEvaluation(fmt.Sprintf("non-boolean result %v", out.Value()), nil)
	}
	return b, nil
}

// Compile translates s into a CEL program.
func (e *Engine) Compile(s spec.Spec) (*Program, error) {
	p, ok := s.Predicate()
	if !ok {
		return &Program{}, nil
	}

	source, err := renderPredicate(p)
	if err != nil {
		e.log.Warnw("render predicate", "predicate", p.String(), "error", err)
		return nil, err
	}

	if e.programs == nil {
		return e.build(p, source)
	}
	return e.programs.Get(source, func() (*Program, error) {
		return e.build(p, source)
	})
}

// CacheStats reports usage of the compiled program cache.
func (e *Engine) CacheStats() cache.CacheStats {
	if e.programs == nil {
		return cache.CacheStats{}
	}
	return e.programs.GetStats()
}

func (e *Engine) build(p expr.Predicate, source string) (*Program, error) {
	vars := rootFields(p)
	decls := make([]cel.EnvOption, len(vars))
	for i, v := range vars {
		decls[i] = cel.Variable(v, cel.DynType)
	}
	env, err := e.env.Extend(decls...)
	if err != nil {
		return nil, fmt.Errorf("extend cel env: %w", err)
	}

	ast, iss := env.Compile(source)
	if iss != nil && iss.Err() != nil {
		e.log.Warnw("compile predicate", "source", source, "error", iss.Err())
		return nil, apperror.NewEvaluation("compile "+source, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, apperror.NewEvaluation("program "+source, err)
	}

	return &Program{source: source, vars: vars, prg: prg}, nil
}

// Select returns the records matching s, preserving order.
func (e *Engine) Select(ctx context.Context, records []map[string]any, s spec.Spec) ([]map[string]any, error) {
	prg, err := e.Compile(s)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := prg.Match(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ok {
			out = append(out, r)
		}
	}

	e.log.WithContext(ctx).Debugw("selected records",
		"spec", s.String(), "total", len(records), "matched", len(out))
	return out, nil
}

// rootFields lists the first path segment of every referenced field.
func rootFields(p expr.Predicate) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, f := range expr.Fields(p) {
		if len(f.Path) == 0 {
			continue
		}
		root := f.Path[0]
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}
