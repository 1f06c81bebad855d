package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/JoaoGuilhermeTP/fatex/internal/platform/config"
)

// Mailer delivers the password-reset email. Delivery is synchronous; the
// caller decides what a failed send means for the request.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail.NewSMTPMailer: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.MailFrom}, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail.SendPasswordReset: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail.SendPasswordReset: %w", err)
	}
	msg.Subject("Password Reset Request")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"To reset your password, visit the following link:\n%s\n\n"+
			"If you did not make this request then simply ignore this email and no changes will be made.\n",
		resetURL,
	))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail.SendPasswordReset: %w", err)
	}
	return nil
}
