package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dropFirstExpire fails the first PEXPIRE the client sends.
type dropFirstExpire struct {
	dropped atomic.Bool
}

func (h *dropFirstExpire) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *dropFirstExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "pexpire" && h.dropped.CompareAndSwap(false, true) {
			err := errors.New("connection reset by peer")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h *dropFirstExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisCounter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCounter(client)
	key := "login_limit:10.0.0.1"

	n, err := c.Incr(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(30 * time.Second)
	n, err = c.Incr(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	// later hits do not extend the window
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	mr.FastForward(31 * time.Second)
	n, err = c.Incr(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisCounter_RepairsLostExpire(t *testing.T) {
	mr, client := newTestRedis(t)
	client.AddHook(&dropFirstExpire{})
	c := NewRedisCounter(client)
	key := "login_limit:10.0.0.1"

	n, err := c.Incr(t.Context(), key, time.Minute)
	assert.Error(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, mr.TTL(key))

	n, err = c.Incr(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(24 * time.Hour)
	n, err = c.Incr(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRateLimiter_RedisCounter(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRateLimiter(NewRedisCounter(client), "login_limit:", 1, time.Minute, zap.NewNop())
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRateLimiter(NewRedisCounter(client), "login_limit:", 1, time.Minute, zap.NewNop())
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
