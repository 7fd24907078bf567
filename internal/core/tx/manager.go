// Package tx defines transaction boundaries independent of the database driver.
package tx

import (
	"context"
)

// Manager runs work inside a database transaction. A failing fn rolls the
// transaction back; nested calls reuse the transaction carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions, used by every
// specification query.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
