package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatusCache keeps terminal order results so repeated polls skip the database.
// Only terminal results are ever stored; they never change.
type StatusCache interface {
	Get(ctx context.Context, orderID string) (*CachedStatus, bool)
	Set(ctx context.Context, orderID string, v CachedStatus)
}

type CachedStatus struct {
	OwnerID uint            `json:"owner_id"`
	Result  ReconcileResult `json:"result"`
}

type NopStatusCache struct{}

func (NopStatusCache) Get(context.Context, string) (*CachedStatus, bool) { return nil, false }
func (NopStatusCache) Set(context.Context, string, CachedStatus)         {}

type RedisStatusCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStatusCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStatusCache{client: client, prefix: "marathon:order-status:", ttl: ttl, log: log}
}

func (r *RedisStatusCache) key(orderID string) string { return r.prefix + orderID }

func (r *RedisStatusCache) Get(ctx context.Context, orderID string) (*CachedStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	val, err := r.client.Get(ctx, r.key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.Warn("status cache get failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, false
	}
	var out CachedStatus
	if err := sonic.Unmarshal(val, &out); err != nil {
		r.log.Warn("status cache decode failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, false
	}
	return &out, true
}

func (r *RedisStatusCache) Set(ctx context.Context, orderID string, v CachedStatus) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	data, err := sonic.Marshal(v)
	if err != nil {
		r.log.Warn("status cache encode failed", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.key(orderID), data, r.ttl).Err(); err != nil {
		r.log.Warn("status cache set failed", zap.String("order_id", orderID), zap.Error(fmt.Errorf("redis set: %w", err)))
	}
}
