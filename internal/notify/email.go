package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"rentstore/internal/config"
)

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, text, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	if html != "" {
		msg.AddAlternative("text/html", html)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridMailer(cfg config.SendGridConfig, from string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     from,
		fromName: cfg.FromName,
	}
}

func (m *SendGridMailer) SendMail(ctx context.Context, to, subject, text, html string) error {
	if html == "" {
		html = text
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		subject,
		mail.NewEmail("", to),
		text,
		html,
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NewMailer picks SendGrid when an API key is set, then SMTP when host and user are set.
// It returns nil when neither is configured, which the Dispatcher treats as demo mode.
func NewMailer(cfg *config.Config) Mailer {
	switch {
	case cfg.SendGrid.APIKey != "":
		return NewSendGridMailer(cfg.SendGrid, cfg.SMTP.From)
	case cfg.SMTP.Host != "" && cfg.SMTP.User != "":
		return NewSMTPMailer(cfg.SMTP)
	default:
		return nil
	}
}
