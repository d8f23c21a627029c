package queue

import (
	"context"
	"errors"

	"github.com/yanqian/surgecast/internal/domain/history"
)

// Handler executes a single job.
type Handler func(ctx context.Context, name string, payload []byte) error

// ErrNoHandler is returned when a job arrives before a handler is attached.
var ErrNoHandler = errors.New("queue has no handler")

// InlineQueue runs the handler on the caller's goroutine so failures surface
// to the enqueuer.
type InlineQueue struct {
	handler Handler
}

// NewInlineQueue constructs the queue.
func NewInlineQueue(handler Handler) *InlineQueue {
	return &InlineQueue{handler: handler}
}

// Enqueue invokes the handler synchronously.
func (q *InlineQueue) Enqueue(ctx context.Context, name string, payload []byte) error {
	if q.handler == nil {
		return ErrNoHandler
	}
	return q.handler(ctx, name, payload)
}

var _ history.JobQueue = (*InlineQueue)(nil)
