package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil (and no error) when REDIS_URL is empty; callers fall back to no caching.
func ConnectRedis(rawURL string, log *zap.Logger) (*redis.Client, error) {
	if rawURL == "" {
		log.Info("redis disabled (REDIS_URL empty)")
		return nil, nil
	}
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("✅ redis connected", zap.String("addr", opt.Addr))
	return client, nil
}
