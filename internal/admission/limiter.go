package admission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of counting one connection attempt.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter counts connection attempts per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// fixedWindow increments the counter and starts its window on first use.
// Returns {count, remaining ttl in ms}.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisLimiter shares windows across server instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "livequiz:admission:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindow.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("admission window: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("admission window: unexpected reply %v", res)
	}

	d := Decision{Count: res[0], Allowed: res[0] <= l.limit}
	if !d.Allowed {
		d.RetryAfter = time.Duration(res[1]) * time.Millisecond
	}
	return d, nil
}

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter is the single-process fallback when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int64
	length  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(limit int, length time.Duration) *MemoryLimiter {
	return newMemoryLimiter(limit, length, time.Now)
}

func newMemoryLimiter(limit int, length time.Duration, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   int64(limit),
		length:  length,
		now:     now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.length)}
		l.windows[key] = w
		l.sweep(now)
	}
	w.count++

	d := Decision{Count: w.count, Allowed: w.count <= l.limit}
	if !d.Allowed {
		d.RetryAfter = w.resetAt.Sub(now)
	}
	return d, nil
}

// sweep drops expired windows.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
