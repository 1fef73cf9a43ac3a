package loginflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

type loginFixture struct {
	users   *identity.InMemoryUserRepository
	audits  *audit.InMemoryRepository
	hasher  *password.BcryptHasher
	service *Service
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	users := identity.NewInMemoryUserRepository()
	audits := audit.NewInMemoryRepository()
	hasher := password.NewBcryptHasher()
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryBucketRepository(), "test-pepper")

	service := NewService(users, hasher, limiter, audit.NewRecorder(audits))

	return &loginFixture{
		users:   users,
		audits:  audits,
		hasher:  hasher,
		service: service,
	}
}

func (f *loginFixture) createUser(t *testing.T, email, plainPassword string) identity.User {
	t.Helper()

	hash, err := f.hasher.Hash(plainPassword)
	require.NoError(t, err)

	user, err := f.users.CreateUser(context.Background(), identity.CreateUserParams{
		Email:        identity.NormalizeEmail(email),
		Name:         email,
		PasswordHash: hash,
		Role:         identity.RoleUser,
	})
	require.NoError(t, err)
	return user
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	f := newLoginFixture(t)
	user := f.createUser(t, "a@b.com", "longpassword1")

	principal, err := f.service.Login(ctx, " A@B.com ", "longpassword1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.NotNil(t, principal.LastLoginAt)

	stored, err := f.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	success := f.audits.ByEvent(audit.EventLoginSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, user.ID, *success[0].TargetUserID)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newLoginFixture(t)
	f.createUser(t, "a@b.com", "longpassword1")

	_, err := f.service.Login(ctx, "a@b.com", "wrong-password", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))

	fails := f.audits.ByEvent(audit.EventLoginFail)
	require.Len(t, fails, 1)
	assert.Equal(t, "invalid_credentials", fails[0].Metadata["reason"])
}

func TestLoginUnknownAccountSameError(t *testing.T) {
	ctx := context.Background()
	f := newLoginFixture(t)
	f.createUser(t, "a@b.com", "longpassword1")

	knownErr := func() error {
		_, err := f.service.Login(ctx, "a@b.com", "wrong-password", "10.0.0.1")
		return err
	}()
	unknownErr := func() error {
		_, err := f.service.Login(ctx, "nobody@b.com", "wrong-password", "10.0.0.1")
		return err
	}()

	require.Error(t, knownErr)
	require.Error(t, unknownErr)
	assert.Equal(t, errors.GetCode(knownErr), errors.GetCode(unknownErr))
	assert.Equal(t, knownErr.Error(), unknownErr.Error())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	f := newLoginFixture(t)
	user := f.createUser(t, "a@b.com", "longpassword1")
	require.NoError(t, f.users.SetDeletedAt(ctx, user.ID, time.Now()))

	_, err := f.service.Login(ctx, "a@b.com", "longpassword1", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
}

func TestLoginRateLimitedByAccount(t *testing.T) {
	ctx := context.Background()
	f := newLoginFixture(t)
	f.createUser(t, "a@b.com", "longpassword1")

	// The account rule allows five attempts per window. Spread the calls
	// over distinct IPs so the account rule trips first.
	for i := 0; i < 5; i++ {
		ip := string(rune('a'+i)) + ".ip"
		_, err := f.service.Login(ctx, "a@b.com", "wrong-password", ip)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials), "attempt %d", i+1)
	}

	_, err := f.service.Login(ctx, "a@b.com", "longpassword1", "z.ip")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateLimitExceeded))
	assert.GreaterOrEqual(t, errors.RetryAfterSeconds(err), 1)

	// The denial is audited with the scope that tripped.
	var rateLimited []audit.Entry
	for _, entry := range f.audits.ByEvent(audit.EventLoginFail) {
		if entry.Metadata["reason"] == "rate_limited" {
			rateLimited = append(rateLimited, entry)
		}
	}
	require.Len(t, rateLimited, 1)
	assert.Equal(t, ratelimit.LoginByAccount.Scope, rateLimited[0].Metadata["scope"])
}
