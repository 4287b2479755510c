// Package mail sends transactional mail (verification and reset links) over
// SMTP. Sends are synchronous inside the request with their own timeout so a
// slow relay cannot hold a store-side operation.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrDelivery is returned when the SMTP transport fails.
var ErrDelivery = errors.New("email could not be sent")

// Config holds the SMTP relay settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	Timeout   time.Duration
}

// Mailer sends messages through an SMTP relay.
type Mailer struct {
	client    *gomail.Client
	fromName  string
	fromEmail string
}

// NewMailer はSMTPクライアントを設定してMailerを生成します。
func NewMailer(cfg Config) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Mailer{
		client:    client,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}, nil
}

// Send delivers a single plain-text message. Transport failures are reported
// as ErrDelivery; the caller decides what that means for any state it
// persisted before the send.
func (m *Mailer) Send(ctx context.Context, to, subject, text string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromEmail); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}
