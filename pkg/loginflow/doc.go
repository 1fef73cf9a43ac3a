// Package loginflow orchestrates credential login as an ordered step pipeline.
//
// Each step implements the Step interface and runs in Order: rate limiting,
// credential verification, then success recording. A step either continues the
// flow or ends it with a structured error; the executor never skips a step and
// never reorders them.
//
// # Basic Usage
//
//	import "github.com/tracklight/idm/pkg/loginflow"
//
//	service := loginflow.NewService(users, hasher, limiter, auditor)
//
//	user, err := service.Login(ctx, email, password, clientIP)
//	if err != nil {
//		// errors.ErrCodeRateLimitExceeded or errors.ErrCodeInvalidCredentials
//		return err
//	}
//
// # Timing Uniformity
//
// The credential step hashes against a fixed dummy digest when the account is
// unknown or deactivated, so a login attempt costs one bcrypt verification
// regardless of whether the account exists. Unknown account and wrong
// password produce the identical error.
package loginflow
