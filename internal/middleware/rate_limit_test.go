package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLimiter_RefillsOverWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow(ctx, "1.2.3.4")
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other, "keys are independent")

	now = now.Add(20 * time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

type fakeRedis struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	rdb := newFakeRedis()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRedisLimiter(rdb, 2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	a, _ := l.Allow(ctx, "ip")
	b, _ := l.Allow(ctx, "ip")
	c, _ := l.Allow(ctx, "ip")
	assert.True(t, a)
	assert.True(t, b)
	assert.False(t, c)
	require.Len(t, rdb.expires, 1)
	for _, d := range rdb.expires {
		assert.Equal(t, time.Minute, d)
	}

	now = now.Add(time.Minute)
	d, _ := l.Allow(ctx, "ip")
	assert.True(t, d)
}

func TestRateLimit_Middleware(t *testing.T) {
	l := NewLocalLimiter(1, time.Hour)
	h := RateLimit(l, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimit_FailsOpen(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	h := RateLimit(NewRedisLimiter(rdb, 1, time.Minute), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
