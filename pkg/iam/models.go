package iam

import (
	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/identity"
)

// Actor is the resolved principal behind an authenticated request. It is
// always re-read from the store, never trusted from token claims, so a
// deactivation or role change takes effect on the next request.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  identity.Role
}

// NewActor builds an Actor from a stored user
func NewActor(user identity.User) Actor {
	return Actor{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
