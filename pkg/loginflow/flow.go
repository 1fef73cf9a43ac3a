package loginflow

import (
	"context"
	"sort"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
)

// Step is a single stage of the login flow
type Step interface {
	// Name returns the unique name of this step
	Name() string

	// Order returns the execution order (lower numbers execute first)
	Order() int

	// Execute performs the step's logic
	Execute(ctx context.Context, flowContext *FlowContext) (*StepResult, error)
}

// Request is the login attempt input
type Request struct {
	Email     string
	Password  string
	IPAddress string
}

// Result carries the authenticated principal out of a successful flow
type Result struct {
	User identity.User
}

// FlowContext carries state between steps. The email field holds the
// normalized form from the moment the flow starts.
type FlowContext struct {
	Request Request
	Result  *Result

	// Set by the credential step
	User      identity.User
	UserFound bool

	Services *Dependencies
}

// StepResult tells the executor how to proceed after a step
type StepResult struct {
	// Continue indicates whether the flow should continue to the next step
	Continue bool

	// Error ends the flow with a domain error
	Error *errors.Error
}

// Dependencies contains the services the steps need
type Dependencies struct {
	Users   identity.UserRepository
	Hasher  password.Hasher
	Limiter *ratelimit.Limiter
	Auditor *audit.Recorder
}

// StepRegistry manages and orders flow steps
type StepRegistry struct {
	steps []Step
}

// NewStepRegistry creates a new step registry
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{
		steps: make([]Step, 0),
	}
}

// AddStep adds a step to the registry
func (r *StepRegistry) AddStep(step Step) *StepRegistry {
	r.steps = append(r.steps, step)
	return r
}

// GetOrderedSteps returns steps sorted by their order
func (r *StepRegistry) GetOrderedSteps() []Step {
	orderedSteps := make([]Step, len(r.steps))
	copy(orderedSteps, r.steps)

	sort.Slice(orderedSteps, func(i, j int) bool {
		return orderedSteps[i].Order() < orderedSteps[j].Order()
	})

	return orderedSteps
}

// FlowExecutor runs the registered steps in order
type FlowExecutor struct {
	registry *StepRegistry
	services *Dependencies
}

// NewFlowExecutor creates a new flow executor
func NewFlowExecutor(registry *StepRegistry, services *Dependencies) *FlowExecutor {
	return &FlowExecutor{
		registry: registry,
		services: services,
	}
}

// Execute runs the complete flow. The first step error ends the flow.
func (e *FlowExecutor) Execute(ctx context.Context, request Request) (Result, error) {
	request.Email = identity.NormalizeEmail(request.Email)

	flowContext := &FlowContext{
		Request:  request,
		Result:   &Result{},
		Services: e.services,
	}

	for _, step := range e.registry.GetOrderedSteps() {
		stepResult, err := step.Execute(ctx, flowContext)
		if err != nil {
			return Result{}, errors.InternalWrap(err, "login step failed")
		}
		if stepResult.Error != nil {
			return Result{}, stepResult.Error
		}
		if !stepResult.Continue {
			break
		}
	}

	return *flowContext.Result, nil
}

// Step orders. Rate limiting runs before any credential work so a blocked
// caller never triggers a password comparison.
const (
	OrderRateLimit        = 100
	OrderCredentialCheck  = 200
	OrderSuccessRecording = 300
)
