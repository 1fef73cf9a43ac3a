// Package api exposes the registration endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/signup"
)

type Handle struct {
	service *signup.Service
}

// NewHandle creates the registration handler
func NewHandle(service *signup.Service) Handle {
	return Handle{
		service: service,
	}
}

// RegisterRoutes mounts the registration endpoint
func (h Handle) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// Register handles POST /auth/register
func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.RespondJSON(w, r, http.StatusCreated, RegisterResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
}
