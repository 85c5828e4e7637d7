package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGrid struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

func NewSendGrid(apiKey, fromName, fromAddr string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SendGrid) Send(ctx context.Context, to string, kind Kind, params map[string]string) error {
	subject, body, err := Render(kind, params)
	if err != nil {
		return err
	}

	message := mail.NewV3Mail()
	message.From = mail.NewEmail(s.fromName, s.fromAddr)
	message.Subject = subject

	personalization := mail.NewPersonalization()
	personalization.To = append(personalization.To, mail.NewEmail("", to))
	message.Personalizations = append(message.Personalizations, personalization)
	message.Content = append(message.Content, mail.NewContent("text/plain", body))

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("while sending mail through SendGrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2XX response while sending mail through SendGrid: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
