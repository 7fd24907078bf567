package postgres

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sieve/internal/core/apperror"
	"sieve/pkg/logger"
)

// Insert bulk-loads items with the COPY protocol in one transaction.
// Every column returned by ExtractDBColumns is written.
func (r *SpecRepo[T]) Insert(ctx context.Context, items []T) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	ctx, span := tracer.Start(ctx, "SpecRepo.Insert", trace.WithAttributes(
		attribute.String("db.table", r.table),
		attribute.Int("db.rows", len(items)),
	))
	defer span.End()

	var copied int64
	err := r.runner.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := r.runner.GetTx(ctx)
		if tx == nil {
			return fmt.Errorf("insert requires transaction context")
		}

		var err error
		copied, err = tx.CopyFrom(ctx, pgx.Identifier{r.table}, columnNames(r.columns), r.copySource(items))
		return err
	})
	if err != nil {
		span.RecordError(err)
		return 0, apperror.NewDatabase(fmt.Errorf("insert %s: %w", r.table, err))
	}

	logger.Info(ctx, "rows inserted", "table", r.table, "rows", copied)
	return copied, nil
}

func (r *SpecRepo[T]) copySource(items []T) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return columnValues(reflect.ValueOf(items[i]), r.columns), nil
	})
}
