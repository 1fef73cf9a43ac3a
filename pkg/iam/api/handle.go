// Package api exposes the admin user-management endpoints.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/iam"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/resetcode"
)

type Handle struct {
	iamService   *iam.Service
	resetService *resetcode.Service
}

// NewHandle creates the admin handler
func NewHandle(iamService *iam.Service, resetService *resetcode.Service) Handle {
	return Handle{
		iamService:   iamService,
		resetService: resetService,
	}
}

// RegisterRoutes mounts the admin endpoints. The caller wraps the router in
// the Verifier and Authenticator middleware; role checks happen here,
// per route.
func (h Handle) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(iam.RequireRoles(identity.RoleAdmin, identity.RoleJuniorAdmin))
		r.Get("/users", h.ListUsers)
		r.Post("/users/{id}/reset-code", h.IssueResetCode)
	})

	r.Group(func(r chi.Router) {
		r.Use(iam.RequireRoles(identity.RoleAdmin))
		r.Post("/users/{id}/role", h.ChangeRole)
		r.Post("/users/{id}/deactivate", h.Deactivate)
	})
}

// UserResponse is the wire shape of a user in admin listings
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func toUserResponse(user identity.User) UserResponse {
	resp := UserResponse{}
	copier.Copy(&resp, &user)
	resp.ID = user.ID.String()
	resp.Role = string(user.Role)
	return resp
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers handles GET /users
func (h Handle) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := identity.ListUsersParams{
		Take: queryInt(r, "take"),
		Skip: queryInt(r, "skip"),
	}
	params.ShowDeactivated, _ = strconv.ParseBool(r.URL.Query().Get("showDeactivated"))

	users, err := h.iamService.ListUsers(r.Context(), params)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}
	api.RespondJSON(w, r, http.StatusOK, response)
}

// ChangeRole handles POST /users/{id}/role
func (h Handle) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, targetID, err := h.actorAndTarget(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	var req ChangeRoleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		api.RespondError(w, r, errors.InvalidInput("role", "unknown role"))
		return
	}

	user, err := h.iamService.ChangeRole(r.Context(), actor, targetID, role)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondJSON(w, r, http.StatusOK, toUserResponse(user))
}

// Deactivate handles POST /users/{id}/deactivate
func (h Handle) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, targetID, err := h.actorAndTarget(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	if err := h.iamService.Deactivate(r.Context(), actor, targetID); err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondMessage(w, r, http.StatusOK, "User deactivated")
}

// IssueResetCode handles POST /users/{id}/reset-code. The plaintext code is
// returned to the admin for out-of-band delivery and is never stored.
func (h Handle) IssueResetCode(w http.ResponseWriter, r *http.Request) {
	actor, targetID, err := h.actorAndTarget(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	result, err := h.resetService.IssueForAdmin(r.Context(), actor.ID, actor.Role, targetID)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.RespondJSON(w, r, http.StatusOK, map[string]interface{}{
		"code":       result.Code,
		"expires_at": result.ExpiresAt,
	})
}

func (h Handle) actorAndTarget(r *http.Request) (iam.Actor, uuid.UUID, error) {
	actor, ok := iam.ActorFromContext(r.Context())
	if !ok {
		return iam.Actor{}, uuid.Nil, errors.Unauthorized("no authenticated actor")
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return iam.Actor{}, uuid.Nil, errors.InvalidInput("id", "must be a UUID")
	}
	return actor, targetID, nil
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
