package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// defaultUpdateAttempts bounds the optimistic loop for general updates.
const defaultUpdateAttempts = 3

// BaseVersionedRepo gives a repository of T a by-id lookup and a retrying
// optimistic update. Concrete repositories embed it and supply the SQL.
type BaseVersionedRepo[T RowVersioned] struct {
	db       DB
	byID     string
	scan     func(pgx.Row) (T, error)
	attempts int
}

func NewBaseRepo[T RowVersioned](db DB, byID string, scan func(pgx.Row) (T, error)) *BaseVersionedRepo[T] {
	return &BaseVersionedRepo[T]{db: db, byID: byID, scan: scan, attempts: defaultUpdateAttempts}
}

func (b *BaseVersionedRepo[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return b.scan(b.db.QueryRow(ctx, b.byID, id))
}

func (b *BaseVersionedRepo[T]) UpdateWithRetry(ctx context.Context, id int64, mutate func(T) error, cas CompareAndSwapFunc[T]) error {
	return WithRetry(ctx, b.attempts, id, b.GetByID, cas, mutate)
}
