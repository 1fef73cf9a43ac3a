// Package identity holds the user model, role parsing, and the user
// repository shared by every other package.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a closed three-variant enum with no hierarchy. Permission checks
// always go through explicit allow-lists, never numeric comparison.
type Role string

const (
	RoleUser        Role = "USER"
	RoleJuniorAdmin Role = "JUNIOR_ADMIN"
	RoleAdmin       Role = "ADMIN"
)

// ParseRole parses a role string, rejecting anything outside the enum
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleUser:
		return RoleUser, nil
	case RoleJuniorAdmin:
		return RoleJuniorAdmin, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %q", value)
	}
}

// User represents an account in the system. Accounts are never hard-deleted;
// DeletedAt marks a user deactivated and is checked at every authorization
// boundary through Active().
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the account may authenticate and act.
// Deactivation instantly revokes standing even if a session token remains valid.
func (u User) Active() bool {
	return u.DeletedAt == nil
}

// CreateUserParams contains parameters for creating a new user
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         Role
}

// ListUsersParams contains pagination parameters for listing users
type ListUsersParams struct {
	Take            int
	Skip            int
	ShowDeactivated bool
}
