package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "test:outbox")
}

func TestRedisQueue_FIFO(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	first, err := NewWebhookJob("https://hooks.example/a", map[string]string{"ticket_id": "t-1"})
	require.NoError(t, err)
	second := NewEmailJob("ann@example.com", "Assigned", "text", "<p>text</p>")

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.JSONEq(t, `{"ticket_id":"t-1"}`, string(got.Body))
	assert.False(t, got.QueuedAt.IsZero())

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, JobEmail, got.Kind)
	assert.Equal(t, "ann@example.com", got.To)
}

func TestRedisQueue_DequeueTimeout(t *testing.T) {
	q := setupQueue(t)

	got, err := q.Dequeue(context.Background(), time.Second)

	require.NoError(t, err)
	assert.Nil(t, got)
}
