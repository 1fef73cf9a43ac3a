// Package resetcode implements time-boxed, single-use password reset codes.
//
// A reset code is a six digit numeric string delivered out of band (email in
// production, the dev mailbox locally). Only its salted SHA-256 hash is stored.
// Codes expire, carry a bounded attempt budget, and are invalidated the moment
// a newer code is issued for the same account.
//
// # Overview
//
// The resetcode package provides:
//   - Self-service reset requests with a deliberately generic response
//   - Admin-issued codes, returned in-band to the operator
//   - Confirmation with attempt counting and pre-emptive burn
//   - Atomic consume-and-set-password against the user store
//   - Repository pattern with PostgreSQL and in-memory backends
//
// # Basic Usage
//
//	import "github.com/tracklight/idm/pkg/resetcode"
//
//	service := resetcode.NewService(
//		codeRepo, userRepo, hasher, limiter, auditor, notifier, pepper,
//		resetcode.WithTTL(10*time.Minute),
//		resetcode.WithMaxAttempts(5),
//	)
//
//	// Self-service: always succeeds from the caller's point of view.
//	err := service.Request(ctx, email, clientIP)
//
//	// Confirmation: the only path that distinguishes outcomes.
//	err = service.Confirm(ctx, email, code, newPassword, clientIP)
//
// # Lifecycle
//
// A code moves through exactly one of these terminal states:
//
//  1. Consumed - the correct code was confirmed in time; the password changed.
//  2. Invalidated - superseded by a newer code, burned by attempt exhaustion,
//     or revoked when the account was deactivated.
//  3. Expired - the TTL elapsed with the row untouched.
//
// Wrong guesses increment the attempt counter; the guess that reaches the
// budget invalidates the code in the same write, so the budget can never be
// exceeded even under concurrent confirmation.
//
// # Enumeration Resistance
//
// Request never reveals whether an account exists: unknown accounts and
// rate-limited requests return the same nil as a delivered code. Confirm
// collapses unknown account, wrong code, and expired code into a single
// invalid-code error.
//
// # Related Packages
//
//   - pkg/ratelimit - request and confirmation throttling
//   - pkg/notification - code delivery
//   - pkg/audit - issuance and consumption events
package resetcode
