// Package outbox queues outbound notifications in a Redis list so that
// delivery never blocks or fails the ticket mutation that caused it.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobKind selects the delivery channel.
type JobKind string

const (
	JobWebhook JobKind = "webhook"
	JobEmail   JobKind = "email"
)

// Job is one queued delivery.
type Job struct {
	ID       string          `json:"id"`
	Kind     JobKind         `json:"kind"`
	URL      string          `json:"url,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
	To       string          `json:"to,omitempty"`
	Subject  string          `json:"subject,omitempty"`
	Text     string          `json:"text,omitempty"`
	HTML     string          `json:"html,omitempty"`
	Attempts int             `json:"attempts"`
	QueuedAt time.Time       `json:"queued_at"`
}

// NewWebhookJob marshals payload into a webhook job for url.
func NewWebhookJob(url string, payload any) (Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal webhook payload: %w", err)
	}
	return Job{ID: uuid.NewString(), Kind: JobWebhook, URL: url, Body: body}, nil
}

// NewEmailJob builds an email job.
func NewEmailJob(to, subject, text, html string) Job {
	return Job{ID: uuid.NewString(), Kind: JobEmail, To: to, Subject: subject, Text: text, HTML: html}
}

// Queue is a FIFO of jobs.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to wait for a job. It returns (nil, nil) on timeout.
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
}

// RedisQueue stores jobs in a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue returns a queue on key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue implements Queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal outbox job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue outbox job: %w", err)
	}
	return nil
}

// Dequeue implements Queue.
func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode outbox job: %w", err)
	}
	return &job, nil
}

// Len reports the number of queued jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
