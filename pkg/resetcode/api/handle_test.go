package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/audit"
	"github.com/tracklight/idm/pkg/identity"
	"github.com/tracklight/idm/pkg/notification"
	"github.com/tracklight/idm/pkg/password"
	"github.com/tracklight/idm/pkg/ratelimit"
	"github.com/tracklight/idm/pkg/resetcode"
)

func newTestRouter(t *testing.T) (chi.Router, *notification.DevMailbox) {
	t.Helper()

	users := identity.NewInMemoryUserRepository()
	codes := resetcode.NewInMemoryRepository(users)
	mailbox := notification.NewDevMailbox()
	limiter := ratelimit.NewLimiter(ratelimit.NewInMemoryBucketRepository(), "test-pepper")
	auditor := audit.NewRecorder(audit.NewInMemoryRepository())

	service := resetcode.NewService(
		codes, users, password.NewBcryptHasher(), limiter, auditor, mailbox,
		"code-pepper",
	)

	r := chi.NewRouter()
	NewHandle(service, mailbox).RegisterRoutes(r)
	return r, mailbox
}

func TestRequestCodeAlwaysGeneric(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown account", body: `{"email":"nobody@example.com"}`},
		{name: "not an email", body: `{"email":"not-an-email"}`},
		{name: "empty body", body: `{}`},
		{name: "unparseable body", body: `{"email":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/password/request-code", bytes.NewBufferString(tt.body))
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, GenericResetMessage, resp["message"])
		})
	}
}

func TestDevMailboxConsumeIsDestructive(t *testing.T) {
	r, mailbox := newTestRouter(t)
	require.NoError(t, mailbox.Send(notification.PasswordResetCodeNotice, notification.Data{
		To:   "a@b.com",
		Data: map[string]string{"Code": "123456"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/dev/mailbox/a@b.com", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "123456", resp["code"])

	// Second read finds nothing.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dev/mailbox/a@b.com", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
