package iam

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/resetcode"
)

// InMemoryRepository implements Repository over the shared in-memory stores
type InMemoryRepository struct {
	users *identity.InMemoryUserRepository
	codes *resetcode.InMemoryRepository
}

// NewInMemoryRepository creates a new in-memory IAM repository
func NewInMemoryRepository(users *identity.InMemoryUserRepository, codes *resetcode.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		users: users,
		codes: codes,
	}
}

// GetActiveUser gets a non-deactivated user
func (r *InMemoryRepository) GetActiveUser(ctx context.Context, id uuid.UUID) (identity.User, error) {
	return r.users.GetActiveUserByID(ctx, id)
}

// CountActiveAdmins counts non-deactivated ADMIN users excluding the given id
func (r *InMemoryRepository) CountActiveAdmins(ctx context.Context, excluding uuid.UUID) (int, error) {
	return r.users.CountActiveAdmins(ctx, excluding)
}

// UpdateRole changes the user's role
func (r *InMemoryRepository) UpdateRole(ctx context.Context, id uuid.UUID, role identity.Role) error {
	return r.users.UpdateRole(ctx, id, role)
}

// DeactivateUser soft-deletes the user and invalidates their active reset codes
func (r *InMemoryRepository) DeactivateUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := r.users.SetDeletedAt(ctx, id, at); err != nil {
		return err
	}
	return r.codes.InvalidateActiveForUser(ctx, id, at)
}

// ListUsers lists users ordered by creation time descending
func (r *InMemoryRepository) ListUsers(ctx context.Context, params identity.ListUsersParams) ([]identity.User, error) {
	return r.users.ListUsers(ctx, params)
}
