package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"opsboard/internal/config"
)

// EmailSender delivers one rendered email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, to string, email Email) error
}

// SMTPSender sends email through a plain SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender builds an SMTP sender from config. Returns nil when the
// channel is not configured; a nil sender means the channel is disabled.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if cfg.Host == "" || cfg.FromEmail == "" {
		return nil
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to string, email Email) error {
	if to == "" {
		return fmt.Errorf("recipient email is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := buildMessage(s.cfg.FromName, s.cfg.FromEmail, to, email)

	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

func buildMessage(fromName, fromEmail, to string, email Email) []byte {
	var b strings.Builder
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	}
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", email.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTMLBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}
