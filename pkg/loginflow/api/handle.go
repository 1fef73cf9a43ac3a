// Package api exposes the login endpoint.
package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/loginflow"
)

// DefaultTokenTTL is the session token lifetime when none is configured
const DefaultTokenTTL = 24 * time.Hour

type Handle struct {
	service  *loginflow.Service
	auth     *jwtauth.JWTAuth
	tokenTTL time.Duration
}

// NewHandle creates the login handler. tokenTTL of zero selects the default.
func NewHandle(service *loginflow.Service, auth *jwtauth.JWTAuth, tokenTTL time.Duration) Handle {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return Handle{
		service:  service,
		auth:     auth,
		tokenTTL: tokenTTL,
	}
}

// RegisterRoutes mounts the login endpoint
func (h Handle) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  PrincipalInfo `json:"user"`
}

// PrincipalInfo is the public shape of the authenticated user
type PrincipalInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// Login handles POST /auth/login
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		api.RespondError(w, r, errors.InvalidInput("request", "email and password are required"))
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		slog.Error("Failed to issue token", "err", err)
		api.RespondError(w, r, errors.Internal("failed to issue token"))
		return
	}

	api.RespondJSON(w, r, http.StatusOK, LoginResponse{
		Token: token,
		User: PrincipalInfo{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
			Role:  string(user.Role),
		},
	})
}

func (h Handle) issueToken(user identity.User) (string, error) {
	now := time.Now()
	_, token, err := h.auth.Encode(map[string]interface{}{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(h.tokenTTL).Unix(),
	})
	return token, err
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
