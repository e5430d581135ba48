package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/ekyc-engine/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLimitPerWindow int64 = 3
	windowSeconds               = 60
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter is a distributed per-minute limiter backed by Redis. Every
// engine replica shares the same counters, so the resend budget holds across
// instances.
type RedisRateLimiter struct {
	client         *goredis.Client
	limitPerWindow int64
	now            func() time.Time
	script         *goredis.Script
}

func NewRedisRateLimiter(client *goredis.Client, limitPerWindow int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, int64(limitPerWindow), time.Now)
}

func newRedisRateLimiter(
	client *goredis.Client,
	limitPerWindow int64,
	nowFn func() time.Time,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limitPerWindow <= 0 {
		limitPerWindow = defaultLimitPerWindow
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	return &RedisRateLimiter{
		client:         client,
		limitPerWindow: limitPerWindow,
		now:            nowFn,
		script:         allowScript,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false, fmt.Errorf("key is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	window := r.now().UTC().Unix() / windowSeconds
	redisKey := fmt.Sprintf("ratelimit:resend:%s:%d", normalizedKey, window)
	result, err := r.script.Run(ctx, r.client, []string{redisKey}, r.limitPerWindow, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}


