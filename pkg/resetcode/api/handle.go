// Package api exposes the self-service password-reset endpoints.
package api

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/notification"
	"github.com/tracklight/idm/pkg/resetcode"
)

// GenericResetMessage is returned for every reset request, regardless of
// whether the email mapped to an account
const GenericResetMessage = "If an account exists for that email, a reset code has been sent"

type Handle struct {
	service *resetcode.Service
	mailbox *notification.DevMailbox
}

// NewHandle creates the handler. mailbox may be nil; when set, the dev
// mailbox endpoint is registered (local mode only).
func NewHandle(service *resetcode.Service, mailbox *notification.DevMailbox) Handle {
	return Handle{
		service: service,
		mailbox: mailbox,
	}
}

// RegisterRoutes mounts the reset endpoints on the router
func (h Handle) RegisterRoutes(r chi.Router) {
	r.Post("/auth/password/request-code", h.RequestCode)
	r.Post("/auth/password/confirm", h.ConfirmReset)
	if h.mailbox != nil {
		r.Get("/dev/mailbox/{email}", h.GetDevMailbox)
	}
}

type RequestCodeRequest struct {
	Email string `json:"email"`
}

type ConfirmResetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// RequestCode handles POST /auth/password/request-code. The generic message
// covers every input, including a body that does not parse; only an internal
// failure surfaces as an error.
func (h Handle) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondMessage(w, r, http.StatusOK, GenericResetMessage)
		return
	}

	if err := h.service.Request(r.Context(), req.Email, clientIP(r)); err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.RespondMessage(w, r, http.StatusOK, GenericResetMessage)
}

// ConfirmReset handles POST /auth/password/confirm
func (h Handle) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}

	err := h.service.Confirm(r.Context(), req.Email, req.Code, req.NewPassword, clientIP(r))
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.RespondMessage(w, r, http.StatusOK, "Password updated")
}

// GetDevMailbox handles GET /dev/mailbox/{email}. Consuming is destructive:
// each captured code can be read once.
func (h Handle) GetDevMailbox(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	code, ok := h.mailbox.Consume(email)
	if !ok {
		api.RespondError(w, r, errors.NotFound("mailbox entry", email))
		return
	}

	api.RespondJSON(w, r, http.StatusOK, map[string]string{"code": code})
}

// clientIP returns the caller address. The RealIP middleware has already
// rewritten RemoteAddr from the forwarding headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
