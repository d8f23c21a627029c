package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no record matches the ID.
var ErrNotFound = errors.New("prediction not found")

// Repository persists prediction records.
type Repository interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, bool, error)
	List(ctx context.Context, filter Filter) ([]Record, int, error)
	Since(ctx context.Context, since time.Time) ([]Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobQueue carries serialized jobs to a handler.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload []byte) error
}
