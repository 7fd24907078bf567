// Package filter provides typed filters that evaluate the same selection criteria
// against in-memory values (Check) and compile them into expr predicates (Compile)
// for a persistence engine.
//
// Filters are immutable after construction and safe for concurrent use,
// except CompositeFilter.Add which must not race with Check.
package filter

import (
	"math"
	"reflect"
	"strings"

	"sieve/internal/core/apperror"
	"sieve/internal/core/expr"
)

// Filter evaluates a value held in memory.
type Filter[T any] interface {
	Check(value T) bool
}

// Compilable produces the predicate equivalent to Check over the named field.
// Nested attributes are addressed with dots ("address.city").
type Compilable interface {
	Compile(field string) (expr.Predicate, error)
}

// Must panics if err is non-nil. Use only for filters built from constants.
func Must[F any](f F, err error) F {
	if err != nil {
		panic(err)
	}
	return f
}

// fieldPath validates a dotted field name and splits it into segments.
func fieldPath(field string) ([]string, error) {
	if field == "" {
		return nil, apperror.NewNullArgument("field")
	}
	parts := strings.Split(field, ".")
	for _, p := range parts {
		if p == "" {
			return nil, apperror.NewInvalidArgument("field", "empty path segment").WithDetail("field", field)
		}
	}
	return parts, nil
}

// isNil reports whether v is nil or a nil pointer/map/slice/func/chan/interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isNaN reports whether v is a floating point NaN.
func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return math.IsNaN(rv.Float())
	}
	return false
}
