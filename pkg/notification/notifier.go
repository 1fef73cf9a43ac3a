// Package notification delivers out-of-band notices to users, over SMTP in
// production and into an in-process mailbox in local development.
package notification

// NoticeType identifies what is being delivered
type NoticeType string

const (
	PasswordResetCodeNotice NoticeType = "password_reset_code"
)

// Data carries the recipient and the notice payload
type Data struct {
	To      string            // Recipient email address
	Subject string            // Optional subject override
	Data    map[string]string // Template fields (e.g. "Code")
}

// Notifier delivers a notice to a recipient
type Notifier interface {
	Send(notice NoticeType, data Data) error
}
