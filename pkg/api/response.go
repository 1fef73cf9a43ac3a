// Package api holds the shared HTTP response helpers used by the
// package-level handlers.
package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"github.com/tracklight/idm/pkg/errors"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageBody is the JSON shape of plain acknowledgement responses
type MessageBody struct {
	Message string `json:"message"`
}

// RespondJSON writes a JSON response with the given status
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// RespondMessage writes a plain acknowledgement
func RespondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondJSON(w, r, status, MessageBody{Message: message})
}

// RespondError maps a domain error to its HTTP status and a safe body.
// Internal errors are logged and collapse to an opaque 500; rate-limit
// errors carry a Retry-After header.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)

	message := "request failed"
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		message = structured.Message
	}

	if code == errors.ErrCodeInternal {
		slog.Error("Request failed", "path", r.URL.Path, "err", err)
		message = "internal error"
	}

	if code == errors.ErrCodeRateLimitExceeded {
		if retry := errors.RetryAfterSeconds(err); retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retry))
		}
	}

	RespondJSON(w, r, status, ErrorBody{
		Error:   string(code),
		Message: message,
	})
}
