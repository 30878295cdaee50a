package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// RowVersioned is a row guarded by a row_version column. T must be a pointer
// so a missing row can be reported as the zero value.
type RowVersioned interface {
	comparable
	GetRowVersion() int64
	SetRowVersion(int64)
}

// CompareAndSwapFunc writes entity only if the stored row_version still equals
// expected. A tag with zero affected rows means someone else got there first.
type CompareAndSwapFunc[T RowVersioned] func(ctx context.Context, entity T, expected int64) (pgconn.CommandTag, error)

// LoadFunc fetches the current row. A zero T with a nil error means no row.
type LoadFunc[T RowVersioned] func(ctx context.Context, id int64) (T, error)

// ErrTooMuchContention is returned when every optimistic attempt lost the race.
var ErrTooMuchContention = fmt.Errorf("too much contention")

// WithRetry loads the row, applies mutate and attempts a compare-and-swap, up
// to attempts times. On success the entity carries its new row_version.
func WithRetry[T RowVersioned](
	ctx context.Context,
	attempts int,
	id int64,
	load LoadFunc[T],
	cas CompareAndSwapFunc[T],
	mutate func(T) error,
) error {
	var missing T
	for i := 0; i < attempts; i++ {
		entity, err := load(ctx, id)
		if err != nil {
			return err
		}
		if entity == missing {
			return pgx.ErrNoRows
		}

		seen := entity.GetRowVersion()
		if err := mutate(entity); err != nil {
			return err
		}

		tag, err := cas(ctx, entity, seen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			entity.SetRowVersion(seen + 1)
			return nil
		}
	}
	return fmt.Errorf("row %d after %d attempts: %w", id, attempts, ErrTooMuchContention)
}
