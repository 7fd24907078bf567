package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sieve/internal/core/apperror"
	"sieve/internal/core/tx"
	"sieve/internal/domain"
	"sieve/internal/domain/spec"
	"sieve/pkg/logger"
)

// QueryRunner is what SpecRepo needs from a transaction manager.
type QueryRunner interface {
	tx.ReadOnlyManager
	GetQuerier(ctx context.Context) Querier
	GetTx(ctx context.Context) pgx.Tx
}

var (
	_ domain.SpecRepository[struct{}] = (*SpecRepo[struct{}])(nil)
	_ QueryRunner                     = (*TxManager)(nil)
)

// SpecRepo selects rows of T matching a compiled specification.
// Columns come from the "db" tags of T and double as the filter whitelist.
type SpecRepo[T any] struct {
	table    string
	columns  []Column
	resolver *ColumnResolver
	runner   QueryRunner
}

// NewSpecRepo creates a repository over table. Extra resolver options are
// applied after the column whitelist, so overrides may point at any column.
func NewSpecRepo[T any](runner QueryRunner, table string, opts ...ResolverOption) *SpecRepo[T] {
	cols := ExtractDBColumns[T]()
	ropts := append([]ResolverOption{WithColumns(columnNames(cols)...)}, opts...)
	return &SpecRepo[T]{
		table:    table,
		columns:  cols,
		resolver: NewColumnResolver(ropts...),
		runner:   runner,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *SpecRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// where applies s to q. An empty spec adds no WHERE clause.
func (r *SpecRepo[T]) where(q squirrel.SelectBuilder, s spec.Spec) (squirrel.SelectBuilder, error) {
	p, ok := s.Predicate()
	if !ok {
		return q, nil
	}
	cond, err := ToSqlizer(p, r.resolver)
	if err != nil {
		return q, err
	}
	return q.Where(cond), nil
}

// SelectSQL builds the query Find runs.
func (r *SpecRepo[T]) SelectSQL(s spec.Spec, opts domain.FindOptions) (string, []any, error) {
	q := r.Builder().
		Select(selectList(r.columns)...).
		From(r.table)

	q, err := r.where(q, s)
	if err != nil {
		return "", nil, err
	}

	orderBy, err := r.parseOrderBy(opts.OrderBy)
	if err != nil {
		return "", nil, err
	}
	if len(orderBy) > 0 {
		q = q.OrderBy(orderBy...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

// CountSQL builds the query Count runs.
func (r *SpecRepo[T]) CountSQL(s spec.Spec) (string, []any, error) {
	q, err := r.where(r.Builder().Select("COUNT(*)").From(r.table), s)
	if err != nil {
		return "", nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build count query: %w", err)
	}
	return sql, args, nil
}

// Find returns every row matching s.
func (r *SpecRepo[T]) Find(ctx context.Context, s spec.Spec, opts domain.FindOptions) ([]T, error) {
	sql, args, err := r.SelectSQL(s, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "SpecRepo.Find", trace.WithAttributes(
		attribute.String("db.table", r.table),
		attribute.String("db.statement", sql),
	))
	defer span.End()

	logger.Debug(ctx, "spec query", "table", r.table, "spec", s.String(), "sql", sql)

	var items []T
	err = r.runner.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, r.runner.GetQuerier(ctx), &items, sql, args...)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewDatabase(fmt.Errorf("find %s: %w", r.table, err))
	}
	return items, nil
}

// Count returns the number of rows matching s.
func (r *SpecRepo[T]) Count(ctx context.Context, s spec.Spec) (int64, error) {
	sql, args, err := r.CountSQL(s)
	if err != nil {
		return 0, err
	}

	ctx, span := tracer.Start(ctx, "SpecRepo.Count", trace.WithAttributes(
		attribute.String("db.table", r.table),
	))
	defer span.End()

	logger.Debug(ctx, "spec count", "table", r.table, "spec", s.String(), "sql", sql)

	var total int64
	err = r.runner.ReadOnly(ctx, func(ctx context.Context) error {
		return r.runner.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total)
	})
	if err != nil {
		span.RecordError(err)
		return 0, apperror.NewDatabase(fmt.Errorf("count %s: %w", r.table, err))
	}
	return total, nil
}

func (r *SpecRepo[T]) parseOrderBy(orderBy []string) ([]string, error) {
	out := make([]string, 0, len(orderBy))
	for _, raw := range orderBy {
		// Support "-field" for DESC.
		direction := "ASC"
		field := raw
		if strings.HasPrefix(raw, "-") {
			direction = "DESC"
			field = strings.TrimPrefix(raw, "-")
		} else if strings.HasPrefix(raw, "+") {
			field = strings.TrimPrefix(raw, "+")
		}

		field = strings.TrimSpace(field)
		if field == "" {
			return nil, apperror.NewInvalidArgument("orderBy", "empty column").WithDetail("orderBy", raw)
		}
		if _, ok := r.resolver.allowed[field]; !ok {
			return nil, apperror.NewInvalidArgument("orderBy", "unknown column "+field).WithDetail("orderBy", raw)
		}
		out = append(out, field+" "+direction)
	}
	return out, nil
}
