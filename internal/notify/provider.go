package notify

import (
	"fmt"

	"github.com/chowjack2099/China-side-Execution/internal/config"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// ProviderDeps carries clients the factory cannot build from config alone.
type ProviderDeps struct {
	SES SESAPI
}

// NewSender builds the EmailSender selected by cfg.EmailProvider. It returns
// ErrMissingCredential when that provider has nothing to authenticate with.
func NewSender(cfg *config.Config, deps ProviderDeps, logger *logging.Logger) (EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case config.ProviderResend, config.ProviderSendGrid, config.ProviderSES, config.ProviderSMTP, config.ProviderStub:
	default:
		return nil, fmt.Errorf("notify: unknown email provider %q", cfg.EmailProvider)
	}
	if !cfg.ProviderCredential() {
		return nil, fmt.Errorf("%w: provider %q", ErrMissingCredential, cfg.EmailProvider)
	}

	switch cfg.EmailProvider {
	case config.ProviderResend:
		return NewResendSender(ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			BaseURL:   cfg.ResendBaseURL,
			FromEmail: cfg.FromAddress,
			Timeout:   cfg.EmailProviderTimeout,
		}, logger), nil
	case config.ProviderSendGrid:
		return NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromAddress,
			Timeout:   cfg.EmailProviderTimeout,
		}, logger), nil
	case config.ProviderSES:
		if deps.SES == nil {
			return nil, fmt.Errorf("%w: SES client not provided", ErrMissingCredential)
		}
		return NewSESSender(deps.SES, SESConfig{
			FromEmail: cfg.FromAddress,
			Timeout:   cfg.EmailProviderTimeout,
		}, logger), nil
	case config.ProviderSMTP:
		return NewSMTPSender(SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.FromAddress,
			Timeout:   cfg.EmailProviderTimeout,
		}, logger), nil
	default:
		return NewStubEmailSender(logger), nil
	}
}
