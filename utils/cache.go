package utils

import (
	"context"
	"fmt"
	"time"

	"barberly/config"

	"github.com/go-redis/redis/v8"
)

// QueueRedisClient talks to the Redis database backing the notification queue.
var QueueRedisClient *redis.Client

// InitQueueRedis connects to the notification queue database and pings it.
func InitQueueRedis() error {
	QueueRedisClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotificationQueueDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := QueueRedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (notification queue): %w", err)
	}
	return nil
}

// GetQueueRedisClient returns the queue client, connecting lazily.
func GetQueueRedisClient() *redis.Client {
	if QueueRedisClient == nil {
		if err := InitQueueRedis(); err != nil {
			GetLogger().Sugar().Warnf("redis: %v", err)
		}
	}
	return QueueRedisClient
}
