package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending account emails. Delivery
// is best-effort: the workflow never fails a committed operation because a
// send failed.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error
	SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendVerificationEmail sends the address-verification link for a new account.
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.baseURL, token)
	hours := int(time.Until(expiresAt).Hours())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Confirm your email address</h1>
    <p>Thanks for creating a Waypoint account. Confirm your email address to start booking trips:</p>
    <p><a href="%s" style="display:inline-block;background-color:#0066cc;color:#fff;padding:12px 24px;text-decoration:none;border-radius:4px;">Confirm email</a></p>
    <p>Or copy and paste this link into your browser:<br><code>%s</code></p>
    <p>This link expires in %d hours.</p>
    <p>If you didn't create this account, you can ignore this email and the address will not be confirmed.</p>
  </div>
</body>
</html>
`, link, link, hours)

	textBody := fmt.Sprintf(`Confirm your email address

Thanks for creating a Waypoint account. Confirm your email address to start booking trips:

%s

This link expires in %d hours.

If you didn't create this account, you can ignore this email and the address will not be confirmed.
`, link, hours)

	return s.send(ctx, email, "Confirm your Waypoint email address", textBody, htmlBody)
}

// SendPasswordResetEmail sends the password-reset link.
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
	minutes := int(time.Until(expiresAt).Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Reset your password</h1>
    <p>We received a request to reset the password for your Waypoint account.</p>
    <p><a href="%s" style="display:inline-block;background-color:#0066cc;color:#fff;padding:12px 24px;text-decoration:none;border-radius:4px;">Reset password</a></p>
    <p>Or copy and paste this link into your browser:<br><code>%s</code></p>
    <p>This link expires in %d minutes and can be used once.</p>
    <p>If you didn't request a reset, no action is needed; your password is unchanged.</p>
  </div>
</body>
</html>
`, link, link, minutes)

	textBody := fmt.Sprintf(`Reset your password

We received a request to reset the password for your Waypoint account:

%s

This link expires in %d minutes and can be used once.

If you didn't request a reset, no action is needed; your password is unchanged.
`, link, minutes)

	return s.send(ctx, email, "Reset your Waypoint password", textBody, htmlBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
