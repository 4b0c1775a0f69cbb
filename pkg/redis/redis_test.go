package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

// liveClient connects to REDIS_HOST or skips
func liveClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Host: host, Port: port, Enabled: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := PerMinute("127.0.0.1", 60)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache(liveClient(t), "investiq_test")
	ctx := context.Background()

	type payload struct {
		Symbol string  `json:"symbol"`
		Close  float64 `json:"close"`
	}

	require.NoError(t, cache.Set(ctx, "roundtrip", payload{"AAPL", 189.5}, time.Minute))
	t.Cleanup(func() { _ = cache.Delete(ctx, "roundtrip") })

	var got payload
	found, err := cache.Get(ctx, "roundtrip", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{"AAPL", 189.5}, got)

	found, err = cache.Get(ctx, "missing-key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(liveClient(t), "investiq_test")
	cfg := RateLimitConfig{Key: "window-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Minute}
	ctx := context.Background()

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, remaining, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"PricesKey", PricesKey("AAPL", "2024-01-01", "2024-12-31"), "prices:AAPL:2024-01-01:2024-12-31"},
		{"FundamentalsKey", FundamentalsKey("MSFT"), "fundamentals:MSFT"},
		{"NewsKey", NewsKey("TSLA", "2024-06-01", 20), "news:TSLA:2024-06-01:20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
