package resetcode

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/notification"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

const (
	// DefaultTTL is how long an issued code stays redeemable
	DefaultTTL = 10 * time.Minute

	// DefaultMaxAttempts is the verification attempt budget per code
	DefaultMaxAttempts = 5
)

// Service implements the reset-code lifecycle: issue, request-by-email,
// and confirm.
type Service struct {
	repo        Repository
	users       identity.UserRepository
	hasher      password.Hasher
	policy      password.Policy
	limiter     *ratelimit.Limiter
	auditor     *audit.Recorder
	notifier    notification.Notifier
	ttl         time.Duration
	maxAttempts int
	pepper      string
	now         func() time.Time
}

// ServiceOption configures optional Service behavior
type ServiceOption func(*Service)

// WithTTL overrides the code lifetime
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithMaxAttempts overrides the verification attempt budget
func WithMaxAttempts(max int) ServiceOption {
	return func(s *Service) {
		s.maxAttempts = max
	}
}

// WithPolicy overrides the password policy applied on confirm
func WithPolicy(policy password.Policy) ServiceOption {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a reset-code Service
func NewService(
	repo Repository,
	users identity.UserRepository,
	hasher password.Hasher,
	limiter *ratelimit.Limiter,
	auditor *audit.Recorder,
	notifier notification.Notifier,
	pepper string,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		repo:        repo,
		users:       users,
		hasher:      hasher,
		policy:      password.DefaultPolicy(),
		limiter:     limiter,
		auditor:     auditor,
		notifier:    notifier,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		pepper:      pepper,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generateCode draws a uniform 6-digit code from crypto/rand
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashCode derives the stored hash for a code. The user id salts the hash so
// identical codes issued to different users never collide in storage.
func HashCode(pepper string, userID uuid.UUID, code string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", pepper, userID, code)))
	return hex.EncodeToString(sum[:])
}

// IssueResult carries the plaintext code back to the caller. The plaintext
// exists only here; storage holds the salted hash.
type IssueResult struct {
	Code      string
	ExpiresAt time.Time
}

// Issue generates and stores a new code for the user, invalidating any
// previously active codes
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, issuedBy Issuer, issuedByUserID *uuid.UUID) (IssueResult, error) {
	plaintext, err := generateCode()
	if err != nil {
		return IssueResult{}, errors.InternalWrap(err, "failed to generate reset code")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	code, err := s.repo.Create(ctx, CreateCodeParams{
		UserID:         userID,
		CodeHash:       HashCode(s.pepper, userID, plaintext),
		ExpiresAt:      expiresAt,
		IssuedBy:       issuedBy,
		IssuedByUserID: issuedByUserID,
	}, now)
	if err != nil {
		return IssueResult{}, errors.InternalWrap(err, "failed to store reset code")
	}

	event := audit.EventResetCodeIssued
	if issuedBy != IssuerEmail {
		event = audit.EventAdminResetIssued
	}
	s.auditor.Record(ctx, event, issuedByUserID, &userID, map[string]interface{}{
		"issued_by": string(issuedBy),
		"code_id":   code.ID.String(),
	})

	return IssueResult{Code: plaintext, ExpiresAt: expiresAt}, nil
}

// Request handles a self-service reset request. The response is identical
// whether or not the email maps to an account, and whether or not the caller
// is rate limited, so the endpoint leaks nothing about account existence.
// Malformed input is not rejected either: a string that is not an email
// simply never resolves to a user.
func (s *Service) Request(ctx context.Context, email, ipAddress string) error {
	email = identity.NormalizeEmail(email)

	if err := s.limiter.Assert(ctx, ipAddress, ratelimit.ResetRequestByIP); err != nil {
		if errors.IsCode(err, errors.ErrCodeRateLimitExceeded) {
			slog.Info("Reset request rate limited by ip")
			return nil
		}
		return err
	}
	if err := s.limiter.Assert(ctx, email, ratelimit.ResetRequestByAccount); err != nil {
		if errors.IsCode(err, errors.ErrCodeRateLimitExceeded) {
			slog.Info("Reset request rate limited by account")
			return nil
		}
		return err
	}

	user, err := s.users.FindActiveUserByEmail(ctx, email)
	if err != nil {
		// Unknown account gets the same generic success.
		return nil
	}

	result, err := s.Issue(ctx, user.ID, IssuerEmail, nil)
	if err != nil {
		return err
	}

	// Delivery is best-effort. The caller already got its generic success;
	// a delivery failure is an operational problem, not a request failure.
	err = s.notifier.Send(notification.PasswordResetCodeNotice, notification.Data{
		To:   user.Email,
		Data: map[string]string{"Code": result.Code},
	})
	if err != nil {
		slog.Error("Failed to deliver reset code", "err", err)
	}
	return nil
}

// Confirm redeems a code and sets the new password. Account-not-found, wrong
// code, and expired code all return the same invalid-code error.
func (s *Service) Confirm(ctx context.Context, email, submittedCode, newPassword, ipAddress string) error {
	email = identity.NormalizeEmail(email)
	if email == "" || submittedCode == "" {
		return errors.InvalidInput("request", "email and code are required")
	}
	if err := s.policy.Validate(newPassword); err != nil {
		return errors.New(errors.ErrCodePasswordComplexity, err.Error())
	}

	if err := s.limiter.Assert(ctx, ipAddress, ratelimit.ResetConfirmByIP); err != nil {
		return err
	}
	if err := s.limiter.Assert(ctx, email, ratelimit.ResetConfirmByAccount); err != nil {
		return err
	}

	user, err := s.users.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return errors.InvalidResetCode()
	}

	now := s.now()
	code, err := s.repo.FindActiveByUserID(ctx, user.ID, now)
	if err != nil {
		return errors.InvalidResetCode()
	}

	// Burn the code when the attempt budget is already spent, without
	// checking the submitted value. This closes the race where concurrent
	// probes each see a pre-limit attempt count.
	if code.Attempts >= s.maxAttempts {
		if err := s.repo.Invalidate(ctx, code.ID, now); err != nil {
			slog.Error("Failed to invalidate exhausted reset code", "err", err)
		}
		return errors.InvalidResetCode()
	}

	if HashCode(s.pepper, user.ID, submittedCode) != code.CodeHash {
		attempts := code.Attempts + 1
		burn := attempts >= s.maxAttempts
		if err := s.repo.RecordFailedAttempt(ctx, code.ID, attempts, burn, now); err != nil {
			slog.Error("Failed to record reset code attempt", "err", err)
		}
		return errors.InvalidResetCode()
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.InternalWrap(err, "failed to hash password")
	}

	err = s.repo.ConsumeAndSetPassword(ctx, code.ID, user.ID, newHash, now)
	if err != nil {
		if err == ErrCodeNotFound {
			return errors.InvalidResetCode()
		}
		return errors.InternalWrap(err, "failed to consume reset code")
	}

	s.auditor.Record(ctx, audit.EventResetConsumed, nil, &user.ID, map[string]interface{}{
		"code_id": code.ID.String(),
	})
	return nil
}

// IssueForAdmin issues a code on behalf of an admin actor. JUNIOR_ADMIN may
// only target USER accounts; ADMIN may target anyone active.
func (s *Service) IssueForAdmin(ctx context.Context, actorID uuid.UUID, actorRole identity.Role, targetID uuid.UUID) (IssueResult, error) {
	target, err := s.users.GetActiveUserByID(ctx, targetID)
	if err != nil {
		return IssueResult{}, errors.NotFound("user", targetID.String())
	}

	var issuedBy Issuer
	switch actorRole {
	case identity.RoleAdmin:
		issuedBy = IssuerAdmin
	case identity.RoleJuniorAdmin:
		if target.Role != identity.RoleUser {
			return IssueResult{}, errors.Forbidden("junior admins can issue reset codes only for user accounts")
		}
		issuedBy = IssuerJuniorAdmin
	default:
		return IssueResult{}, errors.Forbidden("insufficient role")
	}

	return s.Issue(ctx, target.ID, issuedBy, &actorID)
}
