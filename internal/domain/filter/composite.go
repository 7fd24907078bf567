package filter

import (
	"slices"

	"sieve/internal/core/apperror"
)

// CompositeFilter is a fail-fast conjunction of filters over the same type,
// evaluated in insertion order. It has no compiled form; compile the parts and
// combine them with the spec package instead.
//
// Add is meant for single-goroutine accumulation before use. Calling Add while
// another goroutine runs Check is a data race and is not guarded.
type CompositeFilter[T any] struct {
	filters []Filter[T]
}

// NewComposite returns a composite holding filters.
func NewComposite[T any](filters ...Filter[T]) (*CompositeFilter[T], error) {
	c := &CompositeFilter[T]{}
	if err := c.Add(filters...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add appends filters. If any of them is nil nothing is appended.
func (c *CompositeFilter[T]) Add(filters ...Filter[T]) error {
	for i, f := range filters {
		if isNil(f) {
			return apperror.NewNullArgument("filter").WithDetail("index", i)
		}
	}
	c.filters = append(c.filters, filters...)
	return nil
}

// Check returns false at the first failing filter. An empty composite accepts everything.
func (c *CompositeFilter[T]) Check(v T) bool {
	for _, f := range c.filters {
		if !f.Check(v) {
			return false
		}
	}
	return true
}

// Size returns the number of filters.
func (c *CompositeFilter[T]) Size() int { return len(c.filters) }

// Filters returns a copy of the filters in evaluation order.
func (c *CompositeFilter[T]) Filters() []Filter[T] { return slices.Clone(c.filters) }
