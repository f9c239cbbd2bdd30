package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Close()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "burst exhausted")

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "other keys have their own bucket")

	now = now.Add(time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled")
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	_, _ = rl.Allow(context.Background(), "a")
	now = now.Add(time.Hour)
	rl.evict(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.buckets)
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, 2, time.Minute)
	now := time.Unix(1_700_000_040, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "9.9.9.9")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.True(t, ok, "new window")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestRedisLimiterReportsBackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisLimiter(client, 1, time.Minute).Allow(context.Background(), "k")
	require.Error(t, err)
}

type staticLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *staticLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name    string
		limiter *staticLimiter
		method  string
		want    int
	}{
		{"allowed", &staticLimiter{allow: true}, http.MethodPost, http.StatusNoContent},
		{"denied", &staticLimiter{allow: false}, http.MethodPost, http.StatusTooManyRequests},
		{"backend error fails open", &staticLimiter{err: errors.New("down")}, http.MethodPost, http.StatusNoContent},
		{"preflight skips limiter", &staticLimiter{allow: false}, http.MethodOptions, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/send", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			rec := httptest.NewRecorder()

			RateLimit(tc.limiter, nil)(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.method == http.MethodPost {
				assert.Equal(t, []string{"10.0.0.1"}, tc.limiter.keys)
			}
		})
	}
}

func TestClientIPIgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "203.0.113.8")
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.RemoteAddr = "198.51.100.4"
	assert.Equal(t, "198.51.100.4", clientIP(req), "bare address from the lambda adapter")
}

func TestRateLimitRotatingHeadersShareBucket(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)
	defer rl.Close()
	h := RateLimit(rl, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for _, spoof := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/send", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("X-Real-Ip", spoof)
		req.Header.Set("X-Forwarded-For", spoof)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
