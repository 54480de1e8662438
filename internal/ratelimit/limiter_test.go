package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/clipwatch/clipwatch/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackLimiter(t *testing.T, config Config) *RateLimiter {
	t.Helper()

	limiter := NewRateLimiter(&RedisClient{enabled: false}, config, monitoring.NewMetrics())
	t.Cleanup(limiter.Close)
	return limiter
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter := newFallbackLimiter(t, Config{
		IPLimitPerMin:     10,
		SubmitLimitPerMin: 5,
		BurstMultiplier:   1,
		CleanupInterval:   1 * time.Hour,
	})

	ctx := context.Background()
	key := "test:user:123"
	r := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, key, r)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.Allow(ctx, key, r)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	limiter := newFallbackLimiter(t, Config{
		IPLimitPerMin:     10,
		SubmitLimitPerMin: 5,
		BurstMultiplier:   2,
		CleanupInterval:   1 * time.Hour,
	})

	ctx := context.Background()
	key := "test:burst"
	r := Rate{Limit: 5, Period: time.Minute}

	allowedCount := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.Allow(ctx, key, r)
		require.NoError(t, err)
		if result.Allowed {
			allowedCount++
		}
	}

	assert.GreaterOrEqual(t, allowedCount, 5, "should allow at least the limit")
	assert.LessOrEqual(t, allowedCount, 11, "should not exceed burst capacity")
}

func TestRateLimiterMultipleKeys(t *testing.T) {
	limiter := newFallbackLimiter(t, Config{
		IPLimitPerMin:     10,
		SubmitLimitPerMin: 5,
		BurstMultiplier:   1,
		CleanupInterval:   1 * time.Hour,
	})

	ctx := context.Background()
	r := Rate{Limit: 3, Period: time.Minute}

	for _, key := range []string{"user:1", "user:2", "user:3"} {
		for i := 0; i < 3; i++ {
			result, err := limiter.Allow(ctx, key, r)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "key %s request %d should be allowed", key, i+1)
		}

		result, err := limiter.Allow(ctx, key, r)
		require.NoError(t, err)
		assert.False(t, result.Allowed, "key %s 4th request should be blocked", key)
	}
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newFallbackLimiter(t, DefaultConfig())

	ctx := context.Background()
	r := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 3; i++ {
		_, _ = limiter.Allow(ctx, "test:stats", r)
	}

	stats := limiter.GetStats()
	require.NotNil(t, stats)
	assert.False(t, stats["redis_enabled"].(bool))
	assert.Equal(t, 1, stats["fallback_limiters"].(int))

	statsConfig := stats["config"].(map[string]interface{})
	assert.Equal(t, 60, statsConfig["ip_limit_per_min"])
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := newFallbackLimiter(t, DefaultConfig())

	ctx := context.Background()
	r := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 1001; i++ {
		_, _ = limiter.Allow(ctx, fmt.Sprintf("test:cleanup:%d", i), r)
	}

	limiter.cleanup()

	stats := limiter.GetStats()
	assert.Equal(t, 0, stats["fallback_limiters"].(int))
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := newFallbackLimiter(t, DefaultConfig())

	ctx := context.Background()
	key := "test:concurrent"
	r := Rate{Limit: 100, Period: time.Second}

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				_, err := limiter.Allow(ctx, key, r)
				assert.NoError(t, err)
			}
			done <- true
		}()
	}

	for i := 0; i < 50; i++ {
		<-done
	}
}

func TestRateLimiterContextCancellation(t *testing.T) {
	limiter := newFallbackLimiter(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fallback mode ignores the context; it never leaves the process.
	result, err := limiter.Allow(ctx, "test:cancelled", Rate{Limit: 5, Period: time.Minute})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
