package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// fixedWindow counts hits per key and expires the counter with the window.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed window limiter shared by every instance that talks
// to the same Redis.
type RedisLimiter struct {
	Client redis.Scripter
	Prefix string
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{Client: client, Prefix: "ratelimit:", Limit: limit, Window: window, Now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := fixedWindow.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected redis response length: %d", len(res))
	}

	count, ttl := res[0], res[1]
	remaining := l.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   count <= int64(l.Limit),
		Remaining: remaining,
		Limit:     l.Limit,
		ResetAt:   l.Now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: bad url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}
	return client, nil
}
