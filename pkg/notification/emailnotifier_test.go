package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailNotifier(t *testing.T) {
	tests := []struct {
		name   string
		config SMTPConfig
	}{
		{
			name:   "plain local relay",
			config: SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"},
		},
		{
			name: "authenticated TLS",
			config: SMTPConfig{
				Host:     "smtp.example.com",
				Port:     587,
				TLS:      true,
				Username: "mailer",
				Password: "secret",
				From:     "noreply@example.com",
			},
		},
	}

	// Client options, including the dial timeout, must all be accepted;
	// an out-of-range option value fails construction.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier, err := NewEmailNotifier(tt.config)
			require.NoError(t, err)
			require.NotNil(t, notifier)
		})
	}
}

func TestEmailNotifierUnknownNotice(t *testing.T) {
	notifier, err := NewEmailNotifier(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"})
	require.NoError(t, err)

	err = notifier.Send(NoticeType("unknown"), Data{To: "a@b.com"})
	assert.Error(t, err)
}
