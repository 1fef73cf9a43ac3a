package iam

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/identity"
)

// Repository defines the persistence operations behind the admin actions.
// User reads and role updates delegate to the identity store; DeactivateUser
// is the one operation that must touch two tables atomically.
type Repository interface {
	// GetActiveUser gets a non-deactivated user
	GetActiveUser(ctx context.Context, id uuid.UUID) (identity.User, error)

	// CountActiveAdmins counts non-deactivated ADMIN users excluding the
	// given id
	CountActiveAdmins(ctx context.Context, excluding uuid.UUID) (int, error)

	// UpdateRole changes the user's role
	UpdateRole(ctx context.Context, id uuid.UUID, role identity.Role) error

	// DeactivateUser soft-deletes the user and invalidates every active
	// reset code for them, atomically. A stale code must not be redeemable
	// against a deactivated account.
	DeactivateUser(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListUsers lists users ordered by creation time descending
	ListUsers(ctx context.Context, params identity.ListUsersParams) ([]identity.User, error)
}
