// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single email to a single recipient
type Mailer interface {
	Send(toEmail, toName, subject, plainText, htmlContent string) error
}

// SendGrid is the production Mailer backed by the SendGrid v3 API
type SendGrid struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// Send delivers the email through SendGrid. A non-2xx API response is
// returned as an error.
func (m SendGrid) Send(toEmail, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(m.FromName, m.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	client := sendgrid.NewSendClient(m.APIKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	zap.S().Debugw("email sent", "to", toEmail, "subject", subject, "status", response.StatusCode)
	return nil
}
