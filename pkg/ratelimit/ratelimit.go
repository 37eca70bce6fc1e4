// Package ratelimit implements fixed-window request limiting backed by
// Redis, shared across all nodes of a deployment.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is the rate limiting contract used by the HTTP middleware.
type Limiter interface {
	// Allow reports whether one more request under key fits in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// AllowN consumes n tokens at once.
	AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error)

	// Reset clears the counters for a key.
	Reset(ctx context.Context, key string) error

	// Remaining returns how many requests are left in the current window.
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// RedisLimiter counts requests in time-bucketed Redis keys. INCR+EXPIRE
// through a pipeline keeps the check to one round trip and safe across
// concurrent callers and processes.
type RedisLimiter struct {
	client   *redis.Client
	logger   *zap.Logger
	fallback bool // allow requests when Redis is unreachable (fail-open)
}

func NewRedisLimiter(client *redis.Client, logger *zap.Logger, fallback bool) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		logger:   logger,
		fallback: fallback,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.AllowN(ctx, key, 1, limit, window)
}

func (l *RedisLimiter) AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	pipe := l.client.Pipeline()
	incr := pipe.IncrBy(ctx, bucketKey, int64(n))
	// expire slightly past the window so a bucket never outlives two windows
	pipe.Expire(ctx, bucketKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.fallback {
			l.logger.Warn("rate limit check failed, allowing request (fail-open)",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incr.Val()
	allowed := count <= int64(limit)
	if !allowed {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
		)
	}
	return allowed, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	now := time.Now()
	windows := []time.Duration{time.Minute, time.Hour, 24 * time.Hour}

	var keys []string
	for _, window := range windows {
		keys = append(keys, l.bucketKey(key, now, window))
		keys = append(keys, l.bucketKey(key, now.Add(-window), window))
	}

	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for key %s: %w", key, err)
	}
	return nil
}

func (l *RedisLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	count, err := l.client.Get(ctx, bucketKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return limit, nil
		}
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// bucketKey derives a fixed-window bucket name from the wall clock.
func (l *RedisLimiter) bucketKey(key string, now time.Time, window time.Duration) string {
	var bucket int64
	switch {
	case window <= time.Minute:
		bucket = now.Unix() / int64(window.Seconds())
	case window <= time.Hour:
		bucket = now.Unix() / 60 / int64(window.Minutes())
	default:
		bucket = now.Unix() / 3600 / int64(window.Hours())
	}
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}

// Rule pairs a request budget with its window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules maps the two throttled endpoint groups onto per-minute budgets.
type Rules struct {
	Auth    Rule // signup, login, forgot/reset password
	Message Rule // message send
}

func NewRules(authPerMinute, messagePerMinute int) Rules {
	return Rules{
		Auth:    Rule{Limit: authPerMinute, Window: time.Minute},
		Message: Rule{Limit: messagePerMinute, Window: time.Minute},
	}
}
