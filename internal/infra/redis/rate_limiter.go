package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter: INCR the key, set its TTL on the first hit.
// A blocked hit on a key that lost its TTL puts the TTL back, so a failed EXPIRE
// cannot turn the window into a permanent block.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		r.restoreWindow(ctx, key, window)
		return false, nil
	}

	return true, nil
}

func (r *RateLimiter) restoreWindow(ctx context.Context, key string, window time.Duration) {
	ttl, err := r.client.TTL(ctx, key)
	if err != nil || ttl >= 0 {
		return
	}
	_ = r.client.Expire(ctx, key, window)
}

func ScanKey(clientIP string) string {
	return fmt.Sprintf("rate_limit:scans:%s", clientIP)
}
