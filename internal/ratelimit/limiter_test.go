package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiterIsolatesCallers(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "user-1")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "user-2")
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "user-1")
	assert.False(t, ok)
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "user-1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "user-1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "user-1")
	assert.False(t, ok)

	// Advancing past the window frees the slots.
	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "user-1")
	assert.True(t, ok)
}
