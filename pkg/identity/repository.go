package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository defines the persistence operations for user accounts
type UserRepository interface {
	// CreateUser creates a new user. Returns ErrEmailTaken when the
	// normalized email is already registered (active or deactivated).
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)

	// GetUserByID gets a user regardless of status
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)

	// GetActiveUserByID gets a user that has not been deactivated
	GetActiveUserByID(ctx context.Context, id uuid.UUID) (User, error)

	// FindActiveUserByEmail looks up a non-deactivated user by normalized email
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)

	// EmailExists reports whether any account, active or not, holds the email
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdateLastLoginAt records a successful login
	UpdateLastLoginAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpdatePasswordHash replaces the stored credential
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateRole changes the user's role
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error

	// CountActiveAdmins counts non-deactivated ADMIN users, excluding the
	// given id. Pass uuid.Nil to count all of them.
	CountActiveAdmins(ctx context.Context, excluding uuid.UUID) (int, error)

	// ListUsers lists users ordered by creation time descending
	ListUsers(ctx context.Context, params ListUsersParams) ([]User, error)
}
