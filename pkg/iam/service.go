package iam

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
)

// MaxListTake caps the page size of user listings
const MaxListTake = 100

// DefaultListTake is the page size when the caller does not ask for one
const DefaultListTake = 50

// Service implements actor resolution and the admin user-management
// operations. Every guard here is independent: self-demotion, self-
// deactivation, and last-admin protection each fail on their own.
type Service struct {
	repo    Repository
	auditor *audit.Recorder
	now     func() time.Time
}

// ServiceOption configures optional Service behavior
type ServiceOption func(*Service)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an IAM Service
func NewService(repo Repository, auditor *audit.Recorder, opts ...ServiceOption) *Service {
	s := &Service{
		repo:    repo,
		auditor: auditor,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveActor re-reads the principal from the store. A deactivated account
// fails resolution even when its session token is still valid.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (Actor, error) {
	user, err := s.repo.GetActiveUser(ctx, userID)
	if err != nil {
		return Actor{}, errors.Unauthorized("account not found or deactivated")
	}
	return NewActor(user), nil
}

// RequireRole checks the actor's role against an explicit allow-list. There
// is no role hierarchy; a role not listed is denied.
func RequireRole(actor Actor, allowed ...identity.Role) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return errors.Forbidden("insufficient role")
}

// ChangeRole updates the target's role after the self-demotion and
// last-admin guards pass
func (s *Service) ChangeRole(ctx context.Context, actor Actor, targetID uuid.UUID, newRole identity.Role) (identity.User, error) {
	target, err := s.repo.GetActiveUser(ctx, targetID)
	if err != nil {
		return identity.User{}, errors.NotFound("user", targetID.String())
	}

	if actor.ID == target.ID && newRole != identity.RoleAdmin {
		return identity.User{}, errors.Conflict("cannot change your own role away from admin")
	}

	if target.Role == identity.RoleAdmin && newRole != identity.RoleAdmin {
		remaining, err := s.repo.CountActiveAdmins(ctx, target.ID)
		if err != nil {
			return identity.User{}, errors.InternalWrap(err, "failed to count admins")
		}
		if remaining == 0 {
			return identity.User{}, errors.Conflict("cannot demote the last active admin")
		}
	}

	if err := s.repo.UpdateRole(ctx, target.ID, newRole); err != nil {
		return identity.User{}, errors.InternalWrap(err, "failed to update role")
	}

	s.auditor.Record(ctx, audit.EventRoleChanged, &actor.ID, &target.ID, map[string]interface{}{
		"old_role": string(target.Role),
		"new_role": string(newRole),
	})

	target.Role = newRole
	return target, nil
}

// Deactivate soft-deletes the target and invalidates their active reset
// codes after the self-deactivation and last-admin guards pass
func (s *Service) Deactivate(ctx context.Context, actor Actor, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return errors.Conflict("cannot deactivate your own account")
	}

	target, err := s.repo.GetActiveUser(ctx, targetID)
	if err != nil {
		return errors.NotFound("user", targetID.String())
	}

	if target.Role == identity.RoleAdmin {
		remaining, err := s.repo.CountActiveAdmins(ctx, target.ID)
		if err != nil {
			return errors.InternalWrap(err, "failed to count admins")
		}
		if remaining == 0 {
			return errors.Conflict("cannot deactivate the last active admin")
		}
	}

	if err := s.repo.DeactivateUser(ctx, target.ID, s.now()); err != nil {
		return errors.InternalWrap(err, "failed to deactivate user")
	}

	s.auditor.Record(ctx, audit.EventUserDeactivated, &actor.ID, &target.ID, nil)
	return nil
}

// ListUsers lists users with the page size clamped to MaxListTake
func (s *Service) ListUsers(ctx context.Context, params identity.ListUsersParams) ([]identity.User, error) {
	if params.Take <= 0 {
		params.Take = DefaultListTake
	}
	if params.Take > MaxListTake {
		params.Take = MaxListTake
	}
	if params.Skip < 0 {
		params.Skip = 0
	}

	users, err := s.repo.ListUsers(ctx, params)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to list users")
	}
	return users, nil
}
