// Package notify delivers customer notifications over email or a WhatsApp gateway.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rentstore/internal/apperrors"
	"rentstore/internal/logger"
	"rentstore/internal/models"
)

// Message is one outgoing notification. HTML is used by email only.
type Message struct {
	Channel     models.Channel
	Destination string
	Subject     string
	Text        string
	HTML        string
}

// Result describes a completed send. Demo is true when no transport was configured and the
// message was only logged.
type Result struct {
	Demo bool
}

// Mailer sends a single email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, text, html string) error
}

// Messenger delivers a text message to a normalized phone number.
type Messenger interface {
	Ready(ctx context.Context) (bool, error)
	SendText(ctx context.Context, phone, text string) error
}

// Sender is implemented by Dispatcher; services depend on this.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// Dispatcher routes messages to the configured transport. A nil Mailer or Messenger puts that
// channel in demo mode.
type Dispatcher struct {
	mailer    Mailer
	messenger Messenger
	log       *slog.Logger
}

func NewDispatcher(mailer Mailer, messenger Messenger) *Dispatcher {
	return &Dispatcher{
		mailer:    mailer,
		messenger: messenger,
		log:       logger.WithService("notify"),
	}
}

func (d *Dispatcher) Send(ctx context.Context, msg Message) (Result, error) {
	if strings.TrimSpace(msg.Destination) == "" {
		return Result{}, fmt.Errorf("notification destination is empty: %w", apperrors.ErrValidation)
	}

	switch msg.Channel {
	case models.ChannelEmail:
		return d.sendEmail(ctx, msg)
	case models.ChannelMessaging:
		return d.sendMessaging(ctx, msg)
	default:
		return Result{}, fmt.Errorf("unknown channel %q: %w", msg.Channel, apperrors.ErrValidation)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, msg Message) (Result, error) {
	if d.mailer == nil {
		d.log.Info("email transport not configured, demo send",
			"to", msg.Destination, "subject", msg.Subject, "content", msg.Text)
		return Result{Demo: true}, nil
	}
	if err := d.mailer.SendMail(ctx, msg.Destination, msg.Subject, msg.Text, msg.HTML); err != nil {
		return Result{}, fmt.Errorf("failed to send email to %s: %w", msg.Destination, err)
	}
	d.log.Info("email sent", "to", msg.Destination, "subject", msg.Subject)
	return Result{}, nil
}

func (d *Dispatcher) sendMessaging(ctx context.Context, msg Message) (Result, error) {
	phone := NormalizePhone(msg.Destination)
	if phone == "" {
		return Result{}, fmt.Errorf("invalid phone %q: %w", msg.Destination, apperrors.ErrValidation)
	}

	if d.messenger == nil {
		d.log.Info("messaging gateway not configured, demo send", "to", phone, "content", msg.Text)
		return Result{Demo: true}, nil
	}

	ready, err := d.messenger.Ready(ctx)
	if err != nil || !ready {
		// The content is kept in the log so an operator can deliver it by hand.
		d.log.Warn("messaging session not ready, message not delivered",
			"to", phone, "error", err, "content", msg.Text)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", apperrors.ErrChannelNotReady, err)
		}
		return Result{}, apperrors.ErrChannelNotReady
	}

	if err := d.messenger.SendText(ctx, phone, msg.Text); err != nil {
		return Result{}, fmt.Errorf("failed to send message to %s: %w", phone, err)
	}
	d.log.Info("message sent", "to", phone)
	return Result{}, nil
}
