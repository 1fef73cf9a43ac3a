package signup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/password"
)

func newSignupService() (*Service, *identity.InMemoryUserRepository, *password.BcryptHasher) {
	users := identity.NewInMemoryUserRepository()
	hasher := password.NewBcryptHasher()
	return NewService(users, hasher, password.DefaultPolicy()), users, hasher
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	service, _, hasher := newSignupService()

	user, err := service.Register(ctx, " A@B.com ", "longpassword1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, identity.RoleUser, user.Role)

	// The stored hash verifies and is not the plaintext.
	match, err := hasher.Verify("longpassword1", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestRegisterNameDefaultsToEmail(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newSignupService()

	user, err := service.Register(ctx, "a@b.com", "longpassword1", "")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Name)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newSignupService()

	_, err := service.Register(ctx, "a@b.com", "longpassword1", "")
	require.NoError(t, err)

	// Case variants are the same identity.
	_, err = service.Register(ctx, "A@B.COM", "otherpassword1", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadyExists))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newSignupService()

	_, err := service.Register(ctx, "not-an-email", "longpassword1", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	_, err = service.Register(ctx, "a@b.com", "short", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePasswordComplexity))
}
