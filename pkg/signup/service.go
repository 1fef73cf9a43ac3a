// Package signup implements self-service account registration.
package signup

import (
	"context"

	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/password"
)

// Service registers new accounts
type Service struct {
	users  identity.UserRepository
	hasher password.Hasher
	policy password.Policy
}

// NewService creates a signup Service
func NewService(users identity.UserRepository, hasher password.Hasher, policy password.Policy) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		policy: policy,
	}
}

// Register creates a new USER account. The email is normalized before the
// uniqueness check so case and whitespace variants map to one identity.
func (s *Service) Register(ctx context.Context, email, plainPassword, name string) (identity.User, error) {
	email = identity.NormalizeEmail(email)
	if !identity.IsValidEmail(email) {
		return identity.User{}, errors.InvalidInput("email", "must be a valid email address")
	}
	if err := s.policy.Validate(plainPassword); err != nil {
		return identity.User{}, errors.New(errors.ErrCodePasswordComplexity, err.Error())
	}

	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return identity.User{}, errors.InternalWrap(err, "failed to check email")
	}
	if taken {
		return identity.User{}, errors.New(errors.ErrCodeAlreadyExists, "email already registered")
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return identity.User{}, errors.InternalWrap(err, "failed to hash password")
	}

	if name == "" {
		name = email
	}

	user, err := s.users.CreateUser(ctx, identity.CreateUserParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         identity.RoleUser,
	})
	if err != nil {
		if err == identity.ErrEmailTaken {
			// Raced with a concurrent registration for the same email.
			return identity.User{}, errors.New(errors.ErrCodeAlreadyExists, "email already registered")
		}
		return identity.User{}, errors.InternalWrap(err, "failed to create user")
	}
	return user, nil
}
