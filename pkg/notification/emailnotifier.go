package notification

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

type noticeTemplate struct {
	Subject string
	Text    string
}

var noticeTemplates = map[NoticeType]noticeTemplate{
	PasswordResetCodeNotice: {
		Subject: "Your password reset code",
		Text:    "Your password reset code is {{.Code}}. It expires in 10 minutes.",
	},
}

// EmailNotifier delivers notices over SMTP
type EmailNotifier struct {
	config SMTPConfig
	client *mail.Client
}

// NewEmailNotifier creates a new EmailNotifier
func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if config.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{config: config, client: client}, nil
}

// Send implements Notifier.Send
func (e *EmailNotifier) Send(notice NoticeType, data Data) error {
	tpl, ok := noticeTemplates[notice]
	if !ok {
		return fmt.Errorf("no template registered for notice type: %s", notice)
	}

	tmpl, err := template.New("text").Parse(tpl.Text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := tpl.Subject
	if data.Subject != "" {
		subject = data.Subject
	}

	msg := mail.NewMsg()
	if err := msg.From(e.config.From); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(data.To); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body.String())

	if err := e.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent", "notice", notice, "host", e.config.Host)
	return nil
}
