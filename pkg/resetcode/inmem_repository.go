package resetcode

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/identity"
)

// InMemoryRepository implements Repository using in-memory storage. It shares
// the in-memory user repository so that ConsumeAndSetPassword mutates the same
// user rows the rest of the process sees.
type InMemoryRepository struct {
	mu    sync.Mutex
	codes map[uuid.UUID]Code
	users *identity.InMemoryUserRepository
}

// NewInMemoryRepository creates a new in-memory reset-code repository
func NewInMemoryRepository(users *identity.InMemoryUserRepository) *InMemoryRepository {
	return &InMemoryRepository{
		codes: make(map[uuid.UUID]Code),
		users: users,
	}
}

// Create invalidates active codes for the user and inserts the new one
func (r *InMemoryRepository) Create(ctx context.Context, params CreateCodeParams, now time.Time) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invalidateActiveLocked(params.UserID, now)

	code := Code{
		ID:             uuid.New(),
		UserID:         params.UserID,
		CodeHash:       params.CodeHash,
		ExpiresAt:      params.ExpiresAt,
		IssuedBy:       params.IssuedBy,
		IssuedByUserID: params.IssuedByUserID,
		CreatedAt:      now,
	}
	r.codes[code.ID] = code
	return code, nil
}

// FindActiveByUserID returns the most recent active code for the user
func (r *InMemoryRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []Code
	for _, code := range r.codes {
		if code.UserID == userID && code.ActiveAt(now) {
			active = append(active, code)
		}
	}
	if len(active) == 0 {
		return Code{}, ErrNoActiveCode
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active[0], nil
}

// Invalidate marks one code invalidated
func (r *InMemoryRepository) Invalidate(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[id]
	if !ok {
		return ErrCodeNotFound
	}
	if code.InvalidatedAt == nil {
		code.InvalidatedAt = &at
		r.codes[id] = code
	}
	return nil
}

// RecordFailedAttempt stores the attempt count, optionally burning the code
func (r *InMemoryRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID, attempts int, invalidate bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[id]
	if !ok {
		return ErrCodeNotFound
	}
	code.Attempts = attempts
	if invalidate {
		code.InvalidatedAt = &at
	}
	r.codes[id] = code
	return nil
}

// ConsumeAndSetPassword replaces the user's credential and consumes the code
func (r *InMemoryRepository) ConsumeAndSetPassword(ctx context.Context, codeID, userID uuid.UUID, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[codeID]
	if !ok || code.ConsumedAt != nil || code.InvalidatedAt != nil {
		return ErrCodeNotFound
	}

	if err := r.users.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return err
	}

	code.ConsumedAt = &at
	r.codes[codeID] = code

	for id, other := range r.codes {
		if id == codeID || other.UserID != userID {
			continue
		}
		if other.ConsumedAt == nil && other.InvalidatedAt == nil {
			other.InvalidatedAt = &at
			r.codes[id] = other
		}
	}
	return nil
}

// InvalidateActiveForUser invalidates all active codes for the user
func (r *InMemoryRepository) InvalidateActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invalidateActiveLocked(userID, at)
	return nil
}

func (r *InMemoryRepository) invalidateActiveLocked(userID uuid.UUID, at time.Time) {
	for id, code := range r.codes {
		if code.UserID != userID {
			continue
		}
		if code.ConsumedAt == nil && code.InvalidatedAt == nil {
			code.InvalidatedAt = &at
			r.codes[id] = code
		}
	}
}

// Get returns a stored code by id, for tests
func (r *InMemoryRepository) Get(id uuid.UUID) (Code, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[id]
	return code, ok
}
