package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/errors"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	now := start
	limiter := NewLimiter(NewInMemoryBucketRepository(), "test-pepper")
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestHashKeyStableAndScoped(t *testing.T) {
	a := HashKey("pepper", "login:ip", "10.0.0.1")
	b := HashKey("pepper", "login:ip", "10.0.0.1")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, HashKey("pepper", "login:account", "10.0.0.1"))
	assert.NotEqual(t, a, HashKey("other", "login:ip", "10.0.0.1"))
	assert.NotEqual(t, a, HashKey("pepper", "login:ip", "10.0.0.2"))

	// Raw identifier must not survive into the stored key.
	assert.NotContains(t, a, "10.0.0.1")
}

func TestLimiterDeniesAboveMax(t *testing.T) {
	ctx := context.Background()
	rule := Rule{Scope: "test", Max: 5, WindowMs: 10 * 60 * 1000}
	limiter, _ := newTestLimiter(time.Now())

	for i := 0; i < 5; i++ {
		decision, err := limiter.CheckAndConsume(ctx, "caller", rule)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "call %d", i+1)
	}

	decision, err := limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, 1)

	// Another identifier is unaffected.
	decision, err = limiter.CheckAndConsume(ctx, "other-caller", rule)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiterBlockExpiryResetsWindow(t *testing.T) {
	ctx := context.Background()
	rule := Rule{Scope: "test", Max: 2, WindowMs: 60 * 1000, BlockMs: 30 * 1000}
	limiter, now := newTestLimiter(time.Now())

	for i := 0; i < 2; i++ {
		decision, err := limiter.CheckAndConsume(ctx, "caller", rule)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// Still inside the block.
	*now = now.Add(10 * time.Second)
	decision, err = limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, 1)

	// Past blockedUntil and past the window: the bucket resets.
	*now = now.Add(60 * time.Second)
	decision, err = limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiterWindowRollover(t *testing.T) {
	ctx := context.Background()
	rule := Rule{Scope: "test", Max: 1, WindowMs: 60 * 1000}
	limiter, now := newTestLimiter(time.Now())

	decision, err := limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	*now = now.Add(61 * time.Second)
	decision, err = limiter.CheckAndConsume(ctx, "caller", rule)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAssertReturnsRateLimitError(t *testing.T) {
	ctx := context.Background()
	rule := Rule{Scope: "test", Max: 1, WindowMs: 60 * 1000}
	limiter, _ := newTestLimiter(time.Now())

	require.NoError(t, limiter.Assert(ctx, "caller", rule))

	err := limiter.Assert(ctx, "caller", rule)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateLimitExceeded))
	assert.GreaterOrEqual(t, errors.RetryAfterSeconds(err), 1)
}

func TestRuleBlockDefaultsToWindow(t *testing.T) {
	rule := Rule{Scope: "test", Max: 1, WindowMs: 60 * 1000}
	assert.Equal(t, rule.Window(), rule.Block())

	withBlock := Rule{Scope: "test", Max: 1, WindowMs: 60 * 1000, BlockMs: 1000}
	assert.Equal(t, time.Second, withBlock.Block())
}
