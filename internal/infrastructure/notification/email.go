// Package notification dispatches invoice emails through an external
// mail provider. Delivery mechanics beyond the send contract are out
// of this service's hands.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Attachment is one file attached to an outgoing email
type Attachment struct {
	Buffer      []byte
	Filename    string
	ContentType string
}

// Email is one outgoing message
type Email struct {
	Provider    string
	To          []string
	CC          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// EmailSender sends invoice emails
type EmailSender interface {
	Send(ctx context.Context, email *Email) error
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender implements EmailSender over an SMTP relay
type SMTPSender struct {
	config SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPSender creates an SMTP-backed email sender
func NewSMTPSender(config SMTPConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger,
	}
}

// Send delivers one email. The context is honored up front; gomail
// itself has no context support, so an already-cancelled context
// short-circuits before dialing.
func (s *SMTPSender) Send(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipient")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.config.From)
	msg.SetHeader("To", email.To...)
	if len(email.CC) > 0 {
		msg.SetHeader("Cc", email.CC...)
	}
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.Body)

	for _, attachment := range email.Attachments {
		data := attachment.Buffer
		msg.Attach(attachment.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(data))
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {attachment.ContentType},
			}),
		)
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.Strings("to", email.To),
		zap.Int("attachments", len(email.Attachments)),
	)
	return nil
}

// Ensure SMTPSender implements EmailSender
var _ EmailSender = (*SMTPSender)(nil)
