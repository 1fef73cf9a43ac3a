package iam

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/resetcode"
)

type iamFixture struct {
	users   *identity.InMemoryUserRepository
	codes   *resetcode.InMemoryRepository
	audits  *audit.InMemoryRepository
	service *Service
}

func newIamFixture(t *testing.T) *iamFixture {
	t.Helper()

	users := identity.NewInMemoryUserRepository()
	codes := resetcode.NewInMemoryRepository(users)
	audits := audit.NewInMemoryRepository()

	service := NewService(NewInMemoryRepository(users, codes), audit.NewRecorder(audits))

	return &iamFixture{
		users:   users,
		codes:   codes,
		audits:  audits,
		service: service,
	}
}

func (f *iamFixture) createUser(t *testing.T, email string, role identity.Role) identity.User {
	t.Helper()

	user, err := f.users.CreateUser(context.Background(), identity.CreateUserParams{
		Email:        email,
		Name:         email,
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func TestResolveActor(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	user := f.createUser(t, "admin@b.com", identity.RoleAdmin)

	actor, err := f.service.ResolveActor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, identity.RoleAdmin, actor.Role)

	_, err = f.service.ResolveActor(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
}

func TestResolveActorDeactivated(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	user := f.createUser(t, "user@b.com", identity.RoleUser)

	require.NoError(t, f.users.SetDeletedAt(ctx, user.ID, time.Now()))

	_, err := f.service.ResolveActor(ctx, user.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
}

func TestRequireRoleExactAllowList(t *testing.T) {
	admin := Actor{Role: identity.RoleAdmin}
	junior := Actor{Role: identity.RoleJuniorAdmin}

	assert.NoError(t, RequireRole(admin, identity.RoleAdmin))
	assert.NoError(t, RequireRole(junior, identity.RoleAdmin, identity.RoleJuniorAdmin))

	// No hierarchy: ADMIN is not implicitly granted JUNIOR_ADMIN-only access.
	err := RequireRole(admin, identity.RoleJuniorAdmin)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))
}

func TestChangeRoleSelfDemotionBlocked(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)
	f.createUser(t, "admin2@b.com", identity.RoleAdmin)

	// Even with another admin present, self-demotion is blocked.
	_, err := f.service.ChangeRole(ctx, NewActor(admin), admin.ID, identity.RoleUser)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	// Self-change to ADMIN is a no-op, not a violation.
	_, err = f.service.ChangeRole(ctx, NewActor(admin), admin.ID, identity.RoleAdmin)
	assert.NoError(t, err)
}

func TestChangeRoleLastAdminProtected(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)
	other := f.createUser(t, "other-admin@b.com", identity.RoleAdmin)

	// Demoting one of two admins works.
	updated, err := f.service.ChangeRole(ctx, NewActor(admin), other.ID, identity.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleUser, updated.Role)

	// Demoting the survivor would leave zero active admins.
	_, err = f.service.ChangeRole(ctx, NewActor(other), admin.ID, identity.RoleJuniorAdmin)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	changed := f.audits.ByEvent(audit.EventRoleChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "USER", changed[0].Metadata["new_role"])
}

func TestDeactivateGuards(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)

	// Self-deactivation is always blocked.
	err := f.service.Deactivate(ctx, NewActor(admin), admin.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	// Unknown target.
	err = f.service.Deactivate(ctx, NewActor(admin), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestDeactivateLastAdminProtected(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)
	other := f.createUser(t, "other-admin@b.com", identity.RoleAdmin)

	require.NoError(t, f.service.Deactivate(ctx, NewActor(admin), other.ID))

	// The survivor is now the sole active admin; a second admin cannot
	// take it down even via a stale actor.
	err := f.service.Deactivate(ctx, NewActor(other), admin.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestDeactivateInvalidatesResetCodes(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)
	user := f.createUser(t, "user@b.com", identity.RoleUser)

	_, err := f.codes.Create(ctx, resetcode.CreateCodeParams{
		UserID:    user.ID,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(10 * time.Minute),
		IssuedBy:  resetcode.IssuerEmail,
	}, time.Now())
	require.NoError(t, err)

	require.NoError(t, f.service.Deactivate(ctx, NewActor(admin), user.ID))

	_, err = f.codes.FindActiveByUserID(ctx, user.ID, time.Now())
	assert.ErrorIs(t, err, resetcode.ErrNoActiveCode)

	stored, err := f.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DeletedAt)

	deactivated := f.audits.ByEvent(audit.EventUserDeactivated)
	require.Len(t, deactivated, 1)
	assert.Equal(t, user.ID, *deactivated[0].TargetUserID)
}

func TestListUsersClampsTake(t *testing.T) {
	ctx := context.Background()
	f := newIamFixture(t)
	f.createUser(t, "a@b.com", identity.RoleAdmin)

	users, err := f.service.ListUsers(ctx, identity.ListUsersParams{Take: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// Deactivated users are hidden unless asked for.
	victim := f.createUser(t, "gone@b.com", identity.RoleUser)
	require.NoError(t, f.users.SetDeletedAt(ctx, victim.ID, time.Now()))

	users, err = f.service.ListUsers(ctx, identity.ListUsersParams{})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	users, err = f.service.ListUsers(ctx, identity.ListUsersParams{ShowDeactivated: true})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
