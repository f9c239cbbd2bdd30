package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client  *sendgrid.Client
	from    string
	timeout time.Duration
	logger  *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string // "Name <addr>" or bare address
	Timeout   time.Duration
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &SendGridSender{
		client:  sendgrid.NewSendClient(cfg.APIKey),
		from:    cfg.FromEmail,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured: %w", ErrMissingCredential)
	}

	fromName, fromAddr := splitAddress(firstNonEmpty(msg.From, s.from))
	from := mail.NewEmail(fromName, fromAddr)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return unavailable("sendgrid", err)
		}
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return &ProviderError{Provider: "sendgrid", StatusCode: response.StatusCode, Body: response.Body}
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

var _ EmailSender = (*SendGridSender)(nil)
