package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTP sends through a plain SMTP relay when no SendGrid key is configured.
type SMTP struct {
	dialer   *gomail.Dialer
	fromName string
	fromAddr string
}

func NewSMTP(host string, port int, username, password, fromName, fromAddr string) *SMTP {
	return &SMTP{
		dialer:   gomail.NewDialer(host, port, username, password),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SMTP) Send(ctx context.Context, to string, kind Kind, params map[string]string) error {
	subject, body, err := Render(kind, params)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.fromAddr, s.fromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("while sending mail through %s: %w", s.dialer.Host, err)
	}
	return nil
}
