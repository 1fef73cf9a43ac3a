package iam

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
)

type contextKey string

// ActorCtxKey is the context key holding the resolved Actor
const ActorCtxKey contextKey = "iam.actor"

// ActorFromContext returns the Actor resolved by the middleware
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorCtxKey).(Actor)
	return actor, ok
}

// Verifier returns the token-verification middleware for the given key set
func Verifier(auth *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verifier(auth)
}

// Authenticator resolves the token subject against the store and attaches
// the Actor to the request context. Requests with a missing or invalid
// token, or whose subject no longer resolves to an active user, get 401.
func Authenticator(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				api.RespondError(w, r, errors.Unauthorized("missing or invalid token"))
				return
			}

			userID, err := uuid.Parse(token.Subject())
			if err != nil {
				api.RespondError(w, r, errors.Unauthorized("invalid token subject"))
				return
			}

			actor, err := service.ResolveActor(r.Context(), userID)
			if err != nil {
				api.RespondError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ActorCtxKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles denies the request unless the resolved actor's role is in
// the allow-list
func RequireRoles(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				api.RespondError(w, r, errors.Unauthorized("no authenticated actor"))
				return
			}
			if err := RequireRole(actor, roles...); err != nil {
				api.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
