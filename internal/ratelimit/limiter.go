// Package ratelimit provides a Redis-backed fixed-window rate limiter
// keyed by purpose and client IP.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per (purpose, ip) in a fixed window.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLimiter creates a limiter allowing limit requests per window for
// each (purpose, ip) pair.
func NewLimiter(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (l *Limiter) key(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// Allow records a request for (purpose, ip) and reports whether it is
// within the limit. The window TTL is set when the counter is created.
func (l *Limiter) Allow(ctx context.Context, purpose, ip string) (bool, error) {
	key := l.key(purpose, ip)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}

	return incr.Val() <= l.limit, nil
}
