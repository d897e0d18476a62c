package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     bool      `json:"mongo"`
	Redis     bool      `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// StartHealthMonitor pings the backing stores every interval until ctx ends.
// Either client may be nil when the corresponding backend is disabled.
func StartHealthMonitor(ctx context.Context, redisClient *redis.Client, mongoClient *mongo.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			checkHealth(ctx, redisClient, mongoClient)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func checkHealth(ctx context.Context, redisClient *redis.Client, mongoClient *mongo.Client) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := HealthStatus{Mongo: true, Redis: true, CheckedAt: time.Now()}
	if redisClient != nil {
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			status.Redis = false
			GetLogger().Warn("health: redis ping failed", zap.Error(err))
		}
	}
	if mongoClient != nil {
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			status.Mongo = false
			GetLogger().Warn("health: mongo ping failed", zap.Error(err))
		}
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
}
