package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

var (
	// ErrMissingCredential is returned when the selected provider has no credential.
	ErrMissingCredential = errors.New("notify: email provider credential not configured")

	// ErrProviderUnavailable is returned when the provider could not be reached
	// or did not answer before the send timeout.
	ErrProviderUnavailable = errors.New("notify: email provider unavailable")
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (Resend, SendGrid, SES, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From    string // Optional; the sender's configured identity is used when empty
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body
	ReplyTo string
}

// ProviderError reports a send the provider answered but rejected.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512]
	}
	if body == "" {
		return fmt.Sprintf("notify: %s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("notify: %s returned status %d: %s", e.Provider, e.StatusCode, body)
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, provider, err)
}

// splitAddress parses "Name <addr>" into its parts. Bare addresses come back
// with an empty name.
func splitAddress(addr string) (name, email string) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(addr))
	if err != nil {
		return "", strings.TrimSpace(addr)
	}
	return parsed.Name, parsed.Address
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StubEmailSender is a no-op sender for local runs or when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject, "reply_to", msg.ReplyTo)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
