package notification

import (
	"context"
	"fmt"

	"barberly/models"
	"barberly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sink accepts dispatches for asynchronous, at-least-once delivery.
type Sink interface {
	Enqueue(ctx context.Context, d models.NotificationDispatch) error
}

// Enqueuer is the part of *asynq.Client the queue sink uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink publishes dispatches to the notification queue.
type QueueSink struct {
	Client Enqueuer
	Logger *zap.Logger
}

func NewQueueSink(client Enqueuer, logger *zap.Logger) *QueueSink {
	return &QueueSink{Client: client, Logger: logger}
}

func (s *QueueSink) Enqueue(ctx context.Context, d models.NotificationDispatch) error {
	task, opts, err := tasks.NewNotificationTask(models.NotificationPayload(d))
	if err != nil {
		return fmt.Errorf("build notification task: %w", err)
	}
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue notification %s for %s: %w", d.TemplateKey, d.RecipientID, err)
	}
	s.Logger.Debug("Notification queued",
		zap.String("taskID", info.ID),
		zap.String("template", d.TemplateKey),
		zap.String("recipient", d.RecipientID),
		zap.String("bookingID", d.BookingID))
	return nil
}

// LogSink only logs dispatches. It backs development runs without Redis.
type LogSink struct {
	Logger *zap.Logger
}

func (s *LogSink) Enqueue(ctx context.Context, d models.NotificationDispatch) error {
	s.Logger.Info("Notification",
		zap.String("template", d.TemplateKey),
		zap.String("recipient", d.RecipientID),
		zap.String("role", string(d.RecipientRole)),
		zap.String("bookingID", d.BookingID),
		zap.Any("fields", d.Fields))
	return nil
}
