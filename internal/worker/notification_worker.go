package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/outbox"
	"github.com/spec-kit/maintenance-service/internal/service"
)

const (
	defaultMaxAttempts = 3
	defaultPollWait    = 2 * time.Second
	errorBackoff       = time.Second
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// Poster delivers a JSON body to a webhook URL.
type Poster interface {
	Post(ctx context.Context, url string, body []byte) (int, error)
}

// Mailer sends one email job.
type Mailer interface {
	Send(ctx context.Context, job outbox.Job) error
}

// DeliveryWorker drains the outbox. Failed jobs are re-queued until they
// reach MaxAttempts and are then dropped with an error log.
type DeliveryWorker struct {
	queue       outbox.Queue
	poster      Poster
	mailer      Mailer
	logger      *zap.Logger
	MaxAttempts int
	PollWait    time.Duration
}

// NewDeliveryWorker builds a worker. A nil mailer drops email jobs.
func NewDeliveryWorker(queue outbox.Queue, poster Poster, mailer Mailer, logger *zap.Logger) *DeliveryWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryWorker{
		queue:       queue,
		poster:      poster,
		mailer:      mailer,
		logger:      logger,
		MaxAttempts: defaultMaxAttempts,
		PollWait:    defaultPollWait,
	}
}

// Run processes jobs until ctx is cancelled.
func (w *DeliveryWorker) Run(ctx context.Context) {
	w.logger.Info("delivery worker started")
	defer w.logger.Info("delivery worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.queue.Dequeue(ctx, w.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("outbox dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.Process(ctx, *job)
	}
}

// Process delivers one job and re-queues it on failure.
func (w *DeliveryWorker) Process(ctx context.Context, job outbox.Job) {
	err := w.deliver(ctx, job)
	if err == nil {
		w.logger.Debug("outbox job delivered", zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)))
		return
	}

	job.Attempts++
	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempts", job.Attempts),
		zap.Error(err),
	}
	if job.Attempts >= w.MaxAttempts {
		w.logger.Error("outbox job dropped", fields...)
		return
	}
	w.logger.Warn("outbox job failed, retrying", fields...)
	if err := w.queue.Enqueue(ctx, job); err != nil {
		w.logger.Error("outbox requeue failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, job outbox.Job) error {
	switch job.Kind {
	case outbox.JobWebhook:
		status, err := w.poster.Post(ctx, job.URL, job.Body)
		if err != nil {
			return err
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("webhook responded with status %d", status)
		}
		return nil
	case outbox.JobEmail:
		if w.mailer == nil {
			return nil
		}
		return w.mailer.Send(ctx, job)
	default:
		return errors.New("unknown job kind " + string(job.Kind))
	}
}
