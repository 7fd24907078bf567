// Package domain defines the query boundary between specifications and the
// engines that evaluate them.
package domain

import (
	"context"

	"sieve/internal/domain/filter"
	"sieve/internal/domain/spec"
)

// --- Filter & Pagination ---

// ListFilter describes one list request.
type ListFilter struct {
	// Items are user-supplied filters, ANDed together
	Items []filter.Item

	// Spec is an extra constraint built in code, ANDed with Items
	Spec spec.Spec

	// OrderBy specifies sorting (e.g., "name", "-price")
	OrderBy []string

	// Pagination
	Limit  uint64
	Offset uint64
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: []string{"name"},
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T    `json:"items"`
	TotalCount int64  `json:"totalCount"`
	Limit      uint64 `json:"limit"`
	Offset     uint64 `json:"offset"`
}

// FindOptions controls ordering and pagination of a specification query.
type FindOptions struct {
	// OrderBy lists columns, "-col" for descending, "+col" or "col" for ascending.
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

// --- Repository Interfaces ---

// SpecRepository selects entities matching a specification.
// An empty spec selects everything.
type SpecRepository[T any] interface {
	Find(ctx context.Context, s spec.Spec, opts FindOptions) ([]T, error)
	Count(ctx context.Context, s spec.Spec) (int64, error)
}
