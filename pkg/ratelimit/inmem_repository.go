package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	hits         int
	windowStart  time.Time
	blockedUntil *time.Time
}

// InMemoryBucketRepository implements BucketRepository using in-memory
// storage. The single mutex stands in for the row lock the PostgreSQL
// implementation takes.
type InMemoryBucketRepository struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewInMemoryBucketRepository creates a new in-memory bucket repository
func NewInMemoryBucketRepository() *InMemoryBucketRepository {
	return &InMemoryBucketRepository{
		buckets: make(map[string]*bucket),
	}
}

// CheckAndConsume implements BucketRepository.CheckAndConsume
func (r *InMemoryBucketRepository) CheckAndConsume(ctx context.Context, scope, keyHash string, rule Rule, now time.Time) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope + ":" + keyHash
	b, ok := r.buckets[key]
	if !ok {
		r.buckets[key] = &bucket{hits: 1, windowStart: now}
		return Decision{Allowed: true}, nil
	}

	if b.blockedUntil != nil && b.blockedUntil.After(now) {
		return Decision{Allowed: false, RetryAfterSeconds: retrySeconds(*b.blockedUntil, now)}, nil
	}

	if now.Sub(b.windowStart) >= rule.Window() {
		b.hits = 1
		b.windowStart = now
		b.blockedUntil = nil
		return Decision{Allowed: true}, nil
	}

	b.hits++
	if b.hits > rule.Max {
		until := now.Add(rule.Block())
		b.blockedUntil = &until
		return Decision{Allowed: false, RetryAfterSeconds: retrySeconds(until, now)}, nil
	}

	return Decision{Allowed: true}, nil
}
