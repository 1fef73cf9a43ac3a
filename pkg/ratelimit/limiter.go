// Package ratelimit implements persistent sliding-window rate limiting with
// lockout. Buckets are keyed by a peppered hash of the client identifier, so
// the store never holds raw emails or IP addresses.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tracklight/idm/pkg/errors"
)

// Limiter applies sliding-window rules to peppered identifier hashes.
// Raw identifiers (IPs, emails) are hashed before they reach the store and
// are never logged or persisted in plaintext.
type Limiter struct {
	repo   BucketRepository
	pepper string
	now    func() time.Time
}

// NewLimiter creates a new Limiter
func NewLimiter(repo BucketRepository, pepper string) *Limiter {
	return &Limiter{
		repo:   repo,
		pepper: pepper,
		now:    time.Now,
	}
}

// HashKey derives the stored bucket key for (scope, identifier)
func HashKey(pepper, scope, identifier string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", pepper, scope, identifier)))
	return hex.EncodeToString(sum[:])
}

// CheckAndConsume consumes one hit for the identifier under the rule and
// reports the decision
func (l *Limiter) CheckAndConsume(ctx context.Context, identifier string, rule Rule) (Decision, error) {
	keyHash := HashKey(l.pepper, rule.Scope, identifier)
	return l.repo.CheckAndConsume(ctx, rule.Scope, keyHash, rule, l.now())
}

// Assert consumes one hit and converts a denial into a RateLimitExceeded
// error carrying the retry hint
func (l *Limiter) Assert(ctx context.Context, identifier string, rule Rule) error {
	decision, err := l.CheckAndConsume(ctx, identifier, rule)
	if err != nil {
		return errors.InternalWrap(err, "rate limit check failed")
	}
	if !decision.Allowed {
		return errors.RateLimitExceeded(decision.RetryAfterSeconds)
	}
	return nil
}
