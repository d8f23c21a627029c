package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInlineQueueDelivers(t *testing.T) {
	var gotName string
	var gotPayload []byte
	q := NewInlineQueue(func(_ context.Context, name string, payload []byte) error {
		gotName, gotPayload = name, payload
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), "history.record", []byte(`{"id":"x"}`)))
	require.Equal(t, "history.record", gotName)
	require.JSONEq(t, `{"id":"x"}`, string(gotPayload))
}

func TestInlineQueuePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	q := NewInlineQueue(func(context.Context, string, []byte) error { return boom })
	require.ErrorIs(t, q.Enqueue(context.Background(), "job", []byte(`{}`)), boom)

	empty := NewInlineQueue(nil)
	require.ErrorIs(t, empty.Enqueue(context.Background(), "job", []byte(`{}`)), ErrNoHandler)
}

func TestJobEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	raw, err := encodeJob("history.record", []byte(`{"alert_level":"RED"}`), at)
	require.NoError(t, err)

	job, err := decodeJob(raw)
	require.NoError(t, err)
	require.Equal(t, "history.record", job.Name)
	require.JSONEq(t, `{"alert_level":"RED"}`, string(job.Payload))
	require.True(t, at.Equal(job.Enqueued))

	_, err = encodeJob("x", []byte("not json"), at)
	require.Error(t, err)

	_, err = decodeJob(`{"payload":{}}`)
	require.Error(t, err)
}
