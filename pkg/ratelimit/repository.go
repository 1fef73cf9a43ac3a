package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of consuming one hit from a bucket
type Decision struct {
	Allowed           bool
	RetryAfterSeconds int
}

// BucketRepository applies the sliding-window algorithm to the bucket
// identified by (scope, keyHash). The whole read-modify-write must be atomic
// against concurrent callers for the same key: a lost update here is a
// correctness bug, not a tuning problem.
//
// Algorithm, per call:
//  1. No bucket: create with hits=1, windowStart=now; allowed.
//  2. blockedUntil in the future: denied with the remaining seconds.
//  3. Window elapsed: reset to hits=1, windowStart=now, clear block; allowed.
//  4. Otherwise increment hits; past rule.Max the bucket is blocked for
//     rule.Block() and the call is denied, else allowed.
type BucketRepository interface {
	CheckAndConsume(ctx context.Context, scope, keyHash string, rule Rule, now time.Time) (Decision, error)
}

func retrySeconds(until, now time.Time) int {
	secs := int((until.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
