package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/quiz-funnel/internal/config"
)

const keyPrefix = "hotmart:tx:"

// RedisClaimer marca transações da Hotmart já em processamento para que
// entregas repetidas do webhook virem no-op.
type RedisClaimer struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisClaimer(rdb *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisClaimer{rdb: rdb, ttl: ttl}
}

func redisKey(transactionID string) string {
	return keyPrefix + transactionID
}

// Claim returns true when this call is the first to see transactionID.
func (c *RedisClaimer) Claim(ctx context.Context, transactionID string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, redisKey(transactionID), time.Now().Unix(), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", transactionID, err)
	}
	return ok, nil
}

// Release libera a transação para que uma nova entrega possa processá-la.
func (c *RedisClaimer) Release(ctx context.Context, transactionID string) error {
	if err := c.rdb.Del(ctx, redisKey(transactionID)).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", transactionID, err)
	}
	return nil
}

func (c *RedisClaimer) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
