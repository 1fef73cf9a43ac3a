// Package iam provides role-based access control and admin user management.
//
// The package covers two concerns: resolving the authenticated HTTP caller
// into an Actor with a live role, and the admin operations that change other
// accounts (role assignment, deactivation, listing).
//
// # Overview
//
// The iam package provides:
//   - Actor resolution from JWT subject to a live, non-deactivated account
//   - Exact-match role checks with no implicit hierarchy
//   - Role changes guarded against self-demotion and losing the last admin
//   - Account deactivation that also revokes outstanding reset codes
//   - chi middleware for token verification and role enforcement
//
// # Basic Usage
//
//	import "github.com/tracklight/idm/pkg/iam"
//
//	service := iam.NewService(repo, auditor)
//
//	r.Group(func(r chi.Router) {
//		r.Use(iam.Verifier(auth))
//		r.Use(iam.Authenticator(service))
//
//		r.Route("/admin", func(r chi.Router) {
//			r.With(iam.RequireRoles(identity.RoleAdmin)).
//				Post("/users/{id}/role", handle.ChangeRole)
//		})
//	})
//
// # Authorization Model
//
// Roles form a flat allow-list, not a ladder. RequireRoles(ADMIN) rejects a
// JUNIOR_ADMIN, and RequireRoles(JUNIOR_ADMIN) rejects an ADMIN; an endpoint
// open to both names both. The role is read from the database on every
// request, so a revoked role takes effect immediately regardless of what the
// token still claims.
//
// # Mutation Guards
//
// ChangeRole and Deactivate enforce, in order: the target exists and is
// active, the actor is not operating on itself (except a no-op self role
// change to ADMIN), and the change would not leave zero active admins. Guard
// failures are conflicts, not permission errors, since the caller's role was
// already accepted.
//
// # Related Packages
//
//   - pkg/identity - user records and role parsing
//   - pkg/resetcode - admin-issued reset codes
//   - pkg/audit - role change and deactivation events
package iam
