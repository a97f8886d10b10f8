package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitechat-backend/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "limits are per client")
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	ok, _ := rl.Allow(ctx, "a")
	require.True(t, ok)
	ok, _ = rl.Allow(ctx, "a")
	require.False(t, ok)

	time.Sleep(30 * time.Millisecond)
	ok, _ = rl.Allow(ctx, "a")
	assert.True(t, ok)
}

func TestRateLimit_Middleware(t *testing.T) {
	limited := 0
	h := RateLimit(NewRateLimiter(1, time.Minute), func() { limited++ })(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req.RemoteAddr = "10.0.0.1:6666"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 1, limited)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ok, err := NewRedisRateLimiter(client, 1, time.Minute).Allow(context.Background(), "x")

	assert.Error(t, err)
	assert.True(t, ok)
}

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRateLimiter(client, limit, window), mr
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	rl, mr := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "limits are per client")

	ttl := mr.TTL("sitechat:ratelimit:1.2.3.4")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "window resets once the key expires")
}

func TestRedisRateLimiter_KeyWithoutExpiryRecovers(t *testing.T) {
	rl, mr := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	// A counter stranded over the limit with no TTL.
	require.NoError(t, mr.Set("sitechat:ratelimit:1.2.3.4", "7"))

	ok, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, mr.TTL("sitechat:ratelimit:1.2.3.4"), time.Duration(0))

	mr.FastForward(24 * time.Hour)
	ok, err = rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimiter_CancelledContextFailsOpen(t *testing.T) {
	rl, mr := newRedisLimiter(t, 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := rl.Allow(ctx, "1.2.3.4")
	assert.Error(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("sitechat:ratelimit:1.2.3.4"))

	ok, err = rl.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    string
		origin     string
		method     string
		wantOrigin string
		wantCode   int
	}{
		{"wildcard", "*", "https://shop.example", http.MethodPost, "*", http.StatusOK},
		{"matching origin", "https://shop.example", "https://shop.example", http.MethodPost, "https://shop.example", http.StatusOK},
		{"other origin", "https://shop.example", "https://evil.example", http.MethodPost, "", http.StatusOK},
		{"preflight", "*", "https://shop.example", http.MethodOptions, "*", http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/chat", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()

			CORS(tc.allowed)(okHandler).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			assert.Equal(t, tc.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
