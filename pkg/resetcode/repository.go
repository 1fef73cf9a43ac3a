package resetcode

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNoActiveCode = errors.New("no active reset code")
	ErrCodeNotFound = errors.New("reset code not found")
)

// Repository defines the persistence operations for reset codes. The
// multi-row operations are atomic: at most one active code may exist per
// user at any instant, and that invariant is enforced here, inside the
// store's transaction, not in process memory.
type Repository interface {
	// Create invalidates every currently-active code for the user and
	// inserts the new one, atomically.
	Create(ctx context.Context, params CreateCodeParams, now time.Time) (Code, error)

	// FindActiveByUserID returns the most recent active (unexpired,
	// unconsumed, uninvalidated) code for the user, or ErrNoActiveCode.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (Code, error)

	// Invalidate marks one code invalidated
	Invalidate(ctx context.Context, id uuid.UUID, at time.Time) error

	// RecordFailedAttempt stores the new attempt count, invalidating the
	// code in the same write when the attempt budget is exhausted
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, attempts int, invalidate bool, at time.Time) error

	// ConsumeAndSetPassword atomically replaces the user's password hash,
	// marks the matched code consumed, and invalidates every other active
	// code for that user.
	ConsumeAndSetPassword(ctx context.Context, codeID, userID uuid.UUID, passwordHash string, at time.Time) error

	// InvalidateActiveForUser invalidates all active codes for the user
	InvalidateActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}
