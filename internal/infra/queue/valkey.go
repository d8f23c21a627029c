package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/surgecast/internal/domain/history"
)

const defaultQueueKey = "surgecast:jobs"

type jobEnvelope struct {
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Enqueued time.Time       `json:"enqueued"`
}

// ValkeyQueue persists jobs in a Valkey list and delivers them to a handler
// from Run. Jobs whose handler fails are moved to <key>:failed.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	failedKey   string
	handler     Handler
	logger      *slog.Logger
	pollTimeout time.Duration
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, handler Handler, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		failedKey:   queueKey + ":failed",
		handler:     handler,
		logger:      logger.With("component", "queue.valkey", "key", queueKey),
		pollTimeout: 5 * time.Second,
	}
}

// Enqueue pushes a job onto the queue.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload []byte) error {
	encoded, err := encodeJob(name, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(encoded).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Run pops jobs until ctx is cancelled.
func (q *ValkeyQueue) Run(ctx context.Context) error {
	if q.handler == nil {
		return ErrNoHandler
	}
	q.logger.Info("queue consumer started")
	for {
		if ctx.Err() != nil {
			q.logger.Info("queue consumer stopped")
			return nil
		}
		cmd := q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build()
		values, err := q.client.Do(ctx, cmd).ToArray()
		if err != nil {
			if valkey.IsValkeyNil(err) || errors.Is(err, context.Canceled) {
				continue
			}
			q.logger.Warn("valkey queue pop failed", "error", err)
			sleep(ctx, time.Second)
			continue
		}
		if len(values) < 2 {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		q.process(ctx, raw)
	}
}

func (q *ValkeyQueue) process(ctx context.Context, raw string) {
	job, err := decodeJob(raw)
	if err != nil {
		q.logger.Warn("valkey queue unmarshal failed", "error", err)
		q.bury(raw)
		return
	}
	if err := q.handler(ctx, job.Name, job.Payload); err != nil {
		q.logger.Error("queued job failed", "name", job.Name, "error", err, "age", time.Since(job.Enqueued))
		q.bury(raw)
	}
}

func (q *ValkeyQueue) bury(raw string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd := q.client.B().Lpush().Key(q.failedKey).Element(raw).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		q.logger.Warn("failed to park job", "error", err)
	}
}

func encodeJob(name string, payload []byte, at time.Time) (string, error) {
	if !json.Valid(payload) {
		return "", errors.New("job payload must be valid JSON")
	}
	encoded, err := json.Marshal(jobEnvelope{Name: name, Payload: payload, Enqueued: at})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeJob(raw string) (jobEnvelope, error) {
	var job jobEnvelope
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return jobEnvelope{}, err
	}
	if job.Name == "" {
		return jobEnvelope{}, errors.New("job name missing")
	}
	return job, nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

var _ history.JobQueue = (*ValkeyQueue)(nil)
