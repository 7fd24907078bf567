package domain

import (
	"context"
	"fmt"

	"sieve/internal/core/apperror"
	"sieve/internal/domain/filter"
	"sieve/internal/domain/spec"
	"sieve/pkg/logger"
)

// QueryService turns list requests into specifications and runs them.
type QueryService[T any] struct {
	repo SpecRepository[T]

	// entityName for error messages and logs
	entityName string
}

// QueryServiceConfig configures the query service.
type QueryServiceConfig[T any] struct {
	Repo       SpecRepository[T]
	EntityName string
}

// NewQueryService creates a new query service.
func NewQueryService[T any](cfg QueryServiceConfig[T]) *QueryService[T] {
	return &QueryService[T]{
		repo:       cfg.Repo,
		entityName: cfg.EntityName,
	}
}

// BuildSpec compiles the filter items of f and ANDs them with f.Spec.
func (s *QueryService[T]) BuildSpec(f ListFilter) (spec.Spec, error) {
	items, err := filter.CompileItems(f.Items)
	if err != nil {
		return spec.None, err
	}
	return spec.And(f.Spec, items), nil
}

// List returns one page of entities matching f and the total match count.
func (s *QueryService[T]) List(ctx context.Context, f ListFilter) (ListResult[T], error) {
	result := ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	sp, err := s.BuildSpec(f)
	if err != nil {
		logger.Warn(ctx, "rejected list filter", "entity", s.entityName, "error", err)
		return result, err
	}

	total, err := s.repo.Count(ctx, sp)
	if err != nil {
		return result, s.normalizeErr(err)
	}
	result.TotalCount = total

	items, err := s.repo.Find(ctx, sp, FindOptions{
		OrderBy: f.OrderBy,
		Limit:   f.Limit,
		Offset:  f.Offset,
	})
	if err != nil {
		return result, s.normalizeErr(err)
	}
	result.Items = items

	logger.Debug(ctx, "list", "entity", s.entityName, "spec", sp.String(), "total", total)
	return result, nil
}

// normalizeErr keeps structured errors and wraps everything else.
func (s *QueryService[T]) normalizeErr(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewDatabase(fmt.Errorf("list %s: %w", s.entityName, err)).
		WithDetail("entity", s.entityName)
}
