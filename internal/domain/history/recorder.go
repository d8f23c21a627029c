package history

import (
	"context"
	"encoding/json"
)

// QueueRecorder serializes records onto a JobQueue; the queue's handler is
// expected to be Service.HandleJob.
type QueueRecorder struct {
	queue JobQueue
}

// NewQueueRecorder constructs a recorder backed by queue.
func NewQueueRecorder(queue JobQueue) *QueueRecorder {
	return &QueueRecorder{queue: queue}
}

// Record enqueues rec for persistence.
func (r *QueueRecorder) Record(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.queue.Enqueue(ctx, RecordJobName, payload)
}
