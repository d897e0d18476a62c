package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barberly/config"
	"barberly/services/notification"
	"barberly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitNotificationWorker starts the push delivery worker in the background
// and returns the server so the caller can shut it down.
func InitNotificationWorker(notifSvc notification.NotificationService, logger *zap.Logger) (*asynq.Server, error) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotificationQueueDB,
	}

	concurrency := config.AppConfig.NotificationConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.NotificationQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationDeliver, handleNotificationTask(notifSvc, logger))

	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = srv.Start(mux); err == nil {
			logger.Info("Notification worker started", zap.Int("concurrency", concurrency))
			return srv, nil
		}
		logger.Warn("Failed to start notification worker",
			zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	return nil, fmt.Errorf("notification worker: %w", err)
}

func handleNotificationTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseNotificationTask(task)
		if err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if !notification.HasTemplate(p.TemplateKey) {
			logger.Error("Unknown notification template", zap.String("template", p.TemplateKey))
			return fmt.Errorf("template %q: %w", p.TemplateKey, asynq.SkipRetry)
		}

		err = notifSvc.Deliver(ctx, p)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, notification.ErrNoDeviceToken):
			logger.Info("Skipping notification, no device registered",
				zap.String("recipient", p.RecipientID), zap.String("template", p.TemplateKey))
			return nil
		default:
			logger.Warn("Notification delivery failed, will retry",
				zap.String("recipient", p.RecipientID),
				zap.String("template", p.TemplateKey),
				zap.Error(err))
			return err
		}
	}
}
