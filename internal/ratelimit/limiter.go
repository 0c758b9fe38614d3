package ratelimit

import (
	"context"
	"sync"
	"time"

	"martxmart/internal/redisclient"
)

// Limiter bounds request rate per caller within a rolling window. It is
// an injectable component so multi-instance deployments can share one
// Redis-backed counter while tests use the in-memory implementation.
type Limiter interface {
	Allow(ctx context.Context, callerKey string) (bool, error)
}

// RedisLimiter shares its window counters across instances.
type RedisLimiter struct {
	client *redisclient.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(client *redisclient.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, callerKey string) (bool, error) {
	return l.client.Allow(ctx, callerKey, l.limit, l.window)
}

// MemoryLimiter is a process-local sliding-window limiter for tests and
// single-instance deployments.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, callerKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[callerKey][:0]
	for _, t := range l.hits[callerKey] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.hits[callerKey] = kept
		return false, nil
	}

	l.hits[callerKey] = append(kept, now)
	return true, nil
}
