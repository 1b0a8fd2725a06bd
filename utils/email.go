// utils/email.go
package utils

import (
	"fmt"

	"github.com/keighl/postmark"
)

// EmailService handles sending transactional emails using Postmark.
type EmailService struct {
	client *postmark.Client
	from   string
}

// NewEmailService initializes and returns a new EmailService instance.
func NewEmailService(cfg *Config) *EmailService {
	return &EmailService{
		client: postmark.NewClient(cfg.PostmarkAPIToken, ""),
		from:   cfg.EmailFrom,
	}
}

// SendEmail sends a basic email to the specified recipient.
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendWelcome greets a freshly signed-up user.
func (es *EmailService) SendWelcome(toEmail, name, accountURL string) error {
	subject := "Welcome to the Tours family!"
	htmlContent := fmt.Sprintf(
		"<strong>Hi %s,</strong><br><br>Welcome aboard! You can manage your account at <a href=\"%s\">%s</a>.",
		name, accountURL, accountURL,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPasswordReset delivers the raw reset token link. The link is only
// valid for ten minutes.
func (es *EmailService) SendPasswordReset(toEmail, resetURL string) error {
	subject := "Your password reset token (valid for 10 minutes)"
	htmlContent := fmt.Sprintf(
		"<strong>Forgot your password?</strong> Submit a PATCH request with your new password to <a href=\"%s\">%s</a>.<br>If you didn't request a reset, please ignore this email.",
		resetURL, resetURL,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
