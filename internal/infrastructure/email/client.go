// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendWithdrawalNotification(toEmail, visitorName, pixKey, whatsapp string, amount float64) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("NOTIFY_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@pixreview.com"
	}

	fromName := os.Getenv("NOTIFY_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "PixReview"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendWithdrawalNotification tells the operator a visitor finished the
// funnel and submitted payout details.
func (c *ResendClient) SendWithdrawalNotification(toEmail, visitorName, pixKey, whatsapp string, amount float64) error {
	subject := fmt.Sprintf("New withdrawal request from %s", visitorName)

	htmlContent := fmt.Sprintf(
		`<h2>New withdrawal request</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Pix key:</strong> %s</p>
<p><strong>WhatsApp:</strong> %s</p>
<p><strong>Final balance:</strong> R$ %.2f</p>`,
		visitorName, pixKey, whatsapp, amount)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send withdrawal notification via Resend: %w", err)
	}

	return nil
}
