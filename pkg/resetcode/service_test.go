package resetcode

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/notification"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

type resetFixture struct {
	users   *identity.InMemoryUserRepository
	codes   *InMemoryRepository
	audits  *audit.InMemoryRepository
	mailbox *notification.DevMailbox
	hasher  *password.BcryptHasher
	service *Service
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	users := identity.NewInMemoryUserRepository()
	codes := NewInMemoryRepository(users)
	audits := audit.NewInMemoryRepository()
	mailbox := notification.NewDevMailbox()
	hasher := password.NewBcryptHasher()
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryBucketRepository(), "test-pepper")

	service := NewService(
		codes, users, hasher, limiter, audit.NewRecorder(audits), mailbox,
		"code-pepper",
	)

	return &resetFixture{
		users:   users,
		codes:   codes,
		audits:  audits,
		mailbox: mailbox,
		hasher:  hasher,
		service: service,
	}
}

func (f *resetFixture) createUser(t *testing.T, email string, role identity.Role) identity.User {
	t.Helper()

	hash, err := f.hasher.Hash("original-password")
	require.NoError(t, err)

	user, err := f.users.CreateUser(context.Background(), identity.CreateUserParams{
		Email:        identity.NormalizeEmail(email),
		Name:         email,
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func TestRequestIssuesCodeAndDelivers(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.createUser(t, "a@b.com", identity.RoleUser)

	// Case and whitespace variants map to the same identity.
	require.NoError(t, f.service.Request(ctx, " A@B.com ", "10.0.0.1"))

	code, err := f.codes.FindActiveByUserID(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, code.Attempts)
	assert.Equal(t, IssuerEmail, code.IssuedBy)

	plaintext, ok := f.mailbox.Consume("a@b.com")
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), plaintext)
	assert.Equal(t, HashCode("code-pepper", user.ID, plaintext), code.CodeHash)

	issued := f.audits.ByEvent(audit.EventResetCodeIssued)
	require.Len(t, issued, 1)
	assert.Equal(t, user.ID, *issued[0].TargetUserID)
}

func TestRequestUnknownAccountIsGeneric(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	assert.NoError(t, f.service.Request(ctx, "nobody@example.com", "10.0.0.1"))

	_, ok := f.mailbox.Consume("nobody@example.com")
	assert.False(t, ok)
}

func TestRequestMalformedEmailIsGeneric(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.createUser(t, "a@b.com", identity.RoleUser)

	// A string that is not an email is indistinguishable from an unknown
	// account: no error, no code, no delivery.
	assert.NoError(t, f.service.Request(ctx, "not-an-email", "10.0.0.1"))
	assert.NoError(t, f.service.Request(ctx, "", "10.0.0.1"))

	_, ok := f.mailbox.Consume("not-an-email")
	assert.False(t, ok)
	assert.Empty(t, f.audits.ByEvent(audit.EventResetCodeIssued))
}

func TestRequestRateLimitedStaysGeneric(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.createUser(t, "a@b.com", identity.RoleUser)

	require.NoError(t, f.service.Request(ctx, "a@b.com", "10.0.0.1"))
	first, err := f.codes.FindActiveByUserID(ctx, user.ID, time.Now())
	require.NoError(t, err)

	// The account rule allows one request per minute. The second call is
	// silently dropped: same generic response, no new code issued.
	require.NoError(t, f.service.Request(ctx, "a@b.com", "10.0.0.1"))

	active, err := f.codes.FindActiveByUserID(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
}

func TestIssueSupersedesPreviousCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.createUser(t, "a@b.com", identity.RoleUser)

	first, err := f.service.Issue(ctx, user.ID, IssuerEmail, nil)
	require.NoError(t, err)
	second, err := f.service.Issue(ctx, user.ID, IssuerEmail, nil)
	require.NoError(t, err)

	// The first code no longer validates even though it was correct.
	err = f.service.Confirm(ctx, "a@b.com", first.Code, "newpassword1", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResetCode))

	require.NoError(t, f.service.Confirm(ctx, "a@b.com", second.Code, "newpassword1", "10.0.0.1"))

	stored, err := f.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	match, err := f.hasher.Verify("newpassword1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)

	consumed := f.audits.ByEvent(audit.EventResetConsumed)
	require.Len(t, consumed, 1)
}

func TestConfirmAttemptBudgetBurnsCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.createUser(t, "a@b.com", identity.RoleUser)

	result, err := f.service.Issue(ctx, user.ID, IssuerEmail, nil)
	require.NoError(t, err)

	codeBefore, err := f.codes.FindActiveByUserID(ctx, user.ID, time.Now())
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		err := f.service.Confirm(ctx, "a@b.com", "000000", "newpassword1", "10.0.0.1")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResetCode), "attempt %d", i)

		stored, ok := f.codes.Get(codeBefore.ID)
		require.True(t, ok)
		assert.Equal(t, i, stored.Attempts)
		if i < 5 {
			assert.Nil(t, stored.InvalidatedAt)
		} else {
			assert.NotNil(t, stored.InvalidatedAt)
		}
	}

	// The correct code is rejected after the burn.
	err = f.service.Confirm(ctx, "a@b.com", result.Code, "newpassword1", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResetCode))
}

func TestConfirmUnknownAccountCollapsesToInvalidCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	err := f.service.Confirm(ctx, "nobody@example.com", "123456", "newpassword1", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResetCode))
}

func TestConfirmWeakPassword(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.createUser(t, "a@b.com", identity.RoleUser)

	err := f.service.Confirm(ctx, "a@b.com", "123456", "short", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePasswordComplexity))
}

func TestIssueForAdminScoping(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	junior := f.createUser(t, "junior@b.com", identity.RoleJuniorAdmin)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)
	regular := f.createUser(t, "user@b.com", identity.RoleUser)

	// JUNIOR_ADMIN may only target USER accounts.
	_, err := f.service.IssueForAdmin(ctx, junior.ID, junior.Role, admin.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))

	result, err := f.service.IssueForAdmin(ctx, junior.ID, junior.Role, regular.ID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), result.Code)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), result.ExpiresAt, time.Minute)

	// ADMIN may target anyone active.
	_, err = f.service.IssueForAdmin(ctx, admin.ID, admin.Role, junior.ID)
	require.NoError(t, err)

	code, err := f.codes.FindActiveByUserID(ctx, junior.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, IssuerAdmin, code.IssuedBy)
	require.NotNil(t, code.IssuedByUserID)
	assert.Equal(t, admin.ID, *code.IssuedByUserID)

	adminIssued := f.audits.ByEvent(audit.EventAdminResetIssued)
	assert.Len(t, adminIssued, 2)
}

func TestIssueForAdminUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	admin := f.createUser(t, "admin@b.com", identity.RoleAdmin)

	_, err := f.service.IssueForAdmin(ctx, admin.ID, admin.Role, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestConfirmExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.createUser(t, "a@b.com", identity.RoleUser)

	now := time.Now()
	service := NewService(
		f.codes, f.users, f.hasher,
		ratelimit.NewLimiter(ratelimit.NewInMemoryBucketRepository(), "test-pepper"),
		audit.NewRecorder(f.audits), f.mailbox,
		"code-pepper",
		WithClock(func() time.Time { return now }),
	)

	result, err := service.Issue(ctx, user.ID, IssuerEmail, nil)
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	err = service.Confirm(ctx, "a@b.com", result.Code, "newpassword1", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResetCode))
}
