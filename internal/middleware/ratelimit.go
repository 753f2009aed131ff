package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter counts hits for key inside a fixed window that starts at the first hit.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryCounter keeps windows in process memory.
type MemoryCounter struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{cache: cache.New(window, 2*window)}
}

func (c *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cache.Add(key, int64(1), window); err == nil {
		return 1, nil
	}
	n, err := c.cache.IncrementInt64(key, 1)
	if err != nil {
		// expired between Add and Increment
		c.cache.Set(key, int64(1), window)
		return 1, nil
	}
	return n, nil
}

// RedisCounter shares windows between processes. INCR and PTTL run in one
// MULTI/EXEC; a key found without a TTL gets one, so a lost EXPIRE is
// repaired by the next hit instead of pinning the count forever.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}

	n := incr.Val()
	// -1 means the key exists without an expiry
	if ttl.Val() == -1 {
		if err := c.client.PExpire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

type RateLimiter struct {
	counter Counter
	prefix  string
	limit   int64
	window  time.Duration
	log     *zap.Logger
}

func NewRateLimiter(counter Counter, prefix string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		prefix:  prefix,
		limit:   int64(limit),
		window:  window,
		log:     log,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.counter.Incr(r.Context(), rl.prefix+clientIP(r), rl.window)
		if err != nil {
			// The limiter fails open; a broken counter must not lock the admin out.
			rl.log.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
