package loginflow

import (
	"context"
	"time"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

// Service wraps the flow executor behind a plain Login call
type Service struct {
	executor *FlowExecutor
}

// ServiceOption configures optional Service behavior
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	now func() time.Time
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		c.now = now
	}
}

// NewService builds the standard three-step login flow
func NewService(
	users identity.UserRepository,
	hasher password.Hasher,
	limiter *ratelimit.Limiter,
	auditor *audit.Recorder,
	opts ...ServiceOption,
) *Service {
	cfg := &serviceConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	registry := NewStepRegistry().
		AddStep(&RateLimitStep{}).
		AddStep(&CredentialStep{}).
		AddStep(NewSuccessStep(cfg.now))

	executor := NewFlowExecutor(registry, &Dependencies{
		Users:   users,
		Hasher:  hasher,
		Limiter: limiter,
		Auditor: auditor,
	})

	return &Service{executor: executor}
}

// Login runs the flow and returns the authenticated principal
func (s *Service) Login(ctx context.Context, email, plainPassword, ipAddress string) (identity.User, error) {
	result, err := s.executor.Execute(ctx, Request{
		Email:     email,
		Password:  plainPassword,
		IPAddress: ipAddress,
	})
	if err != nil {
		return identity.User{}, err
	}
	return result.User, nil
}
