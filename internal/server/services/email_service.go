package services

import (
	"fmt"
	"os"
	"time"

	"github.com/resendlabs/resend-go"
)

// EmailService sends access change notifications through Resend.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	to        []string
}

// NewEmailService returns a notifier sending to recipients. It fails if no
// API key is configured.
func NewEmailService(apiKey, fromEmail string, recipients ...string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable not set")
	}
	if fromEmail == "" {
		fromEmail = "noreply@example.com"
	}

	return &EmailService{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		to:        recipients,
	}, nil
}

func (s *EmailService) send(subject, html string) error {
	// Skip email sending in test mode
	if os.Getenv("SKIP_EMAIL_SEND") == "true" || len(s.to) == 0 {
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      s.to,
		Subject: subject,
		Html:    html,
	}

	_, err := s.client.Emails.Send(params)
	return err
}

func (s *EmailService) NotifyPromoted(email string, until time.Time, remainingSwitches int) error {
	return s.send("Unrestricted access granted", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #333;">Unrestricted access granted</h2>
			<p><strong>%s</strong> has been moved to unrestricted mode.</p>
			<p>Access will be reverted at <code>%s</code>.</p>
			<p style="color: #666;">Switches left today: %d</p>
		</div>
	`, email, until.UTC().Format(time.RFC1123), remainingSwitches))
}

func (s *EmailService) NotifyReverted(email string) error {
	return s.send("Access reverted to restricted mode", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #333;">Access reverted</h2>
			<p><strong>%s</strong> has been moved back to restricted mode.</p>
		</div>
	`, email))
}
