package loginflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

// RateLimitStep checks the IP rule and then the account rule. Either denial
// ends the flow before any credential work.
type RateLimitStep struct{}

func (s *RateLimitStep) Name() string { return "rate_limit" }
func (s *RateLimitStep) Order() int   { return OrderRateLimit }

func (s *RateLimitStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	deps := flowContext.Services

	for _, check := range []struct {
		identifier string
		rule       ratelimit.Rule
	}{
		{flowContext.Request.IPAddress, ratelimit.LoginByIP},
		{flowContext.Request.Email, ratelimit.LoginByAccount},
	} {
		err := deps.Limiter.Assert(ctx, check.identifier, check.rule)
		if err == nil {
			continue
		}
		if errors.IsCode(err, errors.ErrCodeRateLimitExceeded) {
			deps.Auditor.Record(ctx, audit.EventLoginFail, nil, nil, map[string]interface{}{
				"reason": "rate_limited",
				"scope":  check.rule.Scope,
			})
			var structured *errors.Error
			if e, ok := err.(*errors.Error); ok {
				structured = e
			} else {
				structured = errors.RateLimitExceeded(1)
			}
			return &StepResult{Error: structured}, nil
		}
		return nil, err
	}

	return &StepResult{Continue: true}, nil
}

// CredentialStep resolves the account and verifies the password. The
// comparison runs even when the email resolves to nothing, against a
// precomputed dummy hash, so response timing does not reveal whether the
// account exists.
type CredentialStep struct{}

func (s *CredentialStep) Name() string { return "credential_check" }
func (s *CredentialStep) Order() int   { return OrderCredentialCheck }

func (s *CredentialStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	deps := flowContext.Services

	hash := password.DummyHash
	user, err := deps.Users.FindActiveUserByEmail(ctx, flowContext.Request.Email)
	if err == nil {
		flowContext.User = user
		flowContext.UserFound = true
		hash = user.PasswordHash
	}

	match, err := deps.Hasher.Verify(flowContext.Request.Password, hash)
	if err != nil {
		slog.Error("Password verification failed", "err", err)
		match = false
	}

	if !match || !flowContext.UserFound {
		deps.Auditor.Record(ctx, audit.EventLoginFail, nil, targetID(flowContext), map[string]interface{}{
			"reason": "invalid_credentials",
		})
		return &StepResult{Error: errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")}, nil
	}

	return &StepResult{Continue: true}, nil
}

func targetID(flowContext *FlowContext) *uuid.UUID {
	if !flowContext.UserFound {
		return nil
	}
	id := flowContext.User.ID
	return &id
}

// SuccessStep records the login and publishes the principal
type SuccessStep struct {
	now func() time.Time
}

// NewSuccessStep creates the success step with the given time source
func NewSuccessStep(now func() time.Time) *SuccessStep {
	if now == nil {
		now = time.Now
	}
	return &SuccessStep{now: now}
}

func (s *SuccessStep) Name() string { return "success_recording" }
func (s *SuccessStep) Order() int   { return OrderSuccessRecording }

func (s *SuccessStep) Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error) {
	deps := flowContext.Services
	user := flowContext.User

	at := s.now()
	if err := deps.Users.UpdateLastLoginAt(ctx, user.ID, at); err != nil {
		slog.Error("Failed to record last login", "err", err)
	} else {
		user.LastLoginAt = &at
	}

	deps.Auditor.Record(ctx, audit.EventLoginSuccess, nil, &user.ID, nil)

	flowContext.Result.User = user
	return &StepResult{Continue: false}, nil
}
