package notifier

import (
	"context"
	"errors"

	"slotify/models"
	"slotify/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Service is the notifier port: fire-and-forget delivery with per-key
// deduplication. The data map is the template rendering context; callers
// build the idempotency key from the business fact being announced
// (e.g. "reminder:42:60"), never from wall time.
type Service interface {
	Send(ctx context.Context, audience, templateID string, data map[string]string, idempotencyKey string) error
}

// QueueNotifier pushes notifications onto the asynq queue; the worker
// process owns delivery and retries.
type QueueNotifier struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewQueueNotifier(redisOpt asynq.RedisClientOpt, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{Client: asynq.NewClient(redisOpt), Logger: logger}
}

func (n *QueueNotifier) Send(ctx context.Context, audience, templateID string, data map[string]string, idempotencyKey string) error {
	task, opts, err := tasks.NewNotifySendTask(tasks.NotifySendPayload{
		Audience:       audience,
		TemplateID:     templateID,
		Context:        data,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return models.NewBookingError(models.CodeNotifierUnavailable, "could not encode notification")
	}

	if _, err := n.Client.EnqueueContext(ctx, task, opts...); err != nil {
		// A duplicate id means the notification was already queued once;
		// that is the deduplication contract working, not a failure.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			n.Logger.Debug("notification deduplicated",
				zap.String("idempotencyKey", idempotencyKey))
			return nil
		}
		n.Logger.Error("notification enqueue failed",
			zap.String("templateID", templateID),
			zap.String("idempotencyKey", idempotencyKey),
			zap.Error(err))
		return models.NewBookingError(models.CodeNotifierUnavailable, "notification queue is unreachable")
	}
	return nil
}

func (n *QueueNotifier) Close() error {
	return n.Client.Close()
}

// NoopNotifier drops everything; used when the queue is disabled and in
// tests.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string, string, map[string]string, string) error {
	return nil
}
