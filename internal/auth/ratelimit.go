package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per username with a Redis
// fixed-window counter.
type LoginLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewLoginLimiter builds a limiter. A nil client disables limiting.
func NewLoginLimiter(client *redis.Client, max int, window time.Duration) *LoginLimiter {
	if max <= 0 {
		max = 5
	}
	return &LoginLimiter{client: client, max: max, window: window}
}

// Allow records an attempt and reports whether it is within the limit.
func (l *LoginLimiter) Allow(ctx context.Context, username string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	key := attemptKey(username)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.window).Err()
	}
	return count <= int64(l.max), nil
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username string) {
	if l == nil || l.client == nil {
		return
	}
	_ = l.client.Del(ctx, attemptKey(username)).Err()
}

func attemptKey(username string) string {
	return fmt.Sprintf("login_attempts:%s", username)
}
