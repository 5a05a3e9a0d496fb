package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:webhook:"

// RedisLimiter is a fixed-window counter shared across process instances.
// INCR creates the key at 1; the first increment of a window attaches the
// expiry, so the window starts with the first admitted request.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int64
}

// NewRedisLimiter creates a Redis-backed limiter on the given client.
func NewRedisLimiter(client *redis.Client, window time.Duration, limit int) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisLimiter{client: client, window: window, limit: int64(limit)}
}

// Allow admits the request when the shared counter is within the ceiling.
// Redis errors fail open: rate limiting is abuse mitigation, and dropping
// provider deliveries because the counter store is down would be worse.
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) bool {
	key := redisKeyPrefix + clientID
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("rate limit counter unavailable, admitting %s: %v", clientID, err)
		return true
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			log.Printf("failed to set rate limit window for %s: %v", clientID, err)
		}
	}
	return n <= l.limit
}

// RetryAfter returns the window length as the Retry-After hint.
func (l *RedisLimiter) RetryAfter() time.Duration {
	return l.window
}
