package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

var resendTracer = otel.Tracer("leadintake.internal.notify.resend")

const defaultResendBaseURL = "https://api.resend.com"

// ResendConfig holds configuration for the Resend HTTP API.
type ResendConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	Timeout   time.Duration
}

// ResendSender posts messages to Resend's /emails endpoint.
type ResendSender struct {
	apiKey     string
	baseURL    string
	fromEmail  string
	httpClient *http.Client
	logger     *logging.Logger
}

type resendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendSender creates a Resend sender. It returns nil when the API key is empty.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultResendBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &ResendSender{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		fromEmail: cfg.FromEmail,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Send delivers one message. Non-2xx answers come back as *ProviderError;
// transport failures and timeouts wrap ErrProviderUnavailable.
func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.httpClient == nil {
		return ErrMissingCredential
	}

	ctx, span := resendTracer.Start(ctx, "notify.resend.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("email.subject", msg.Subject),
		attribute.Bool("email.has_html", msg.HTML != ""),
	)

	body, err := json.Marshal(resendPayload{
		From:    firstNonEmpty(msg.From, s.fromEmail),
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("notify: resend encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: resend build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		s.logger.Error("resend request failed", "error", err, "to", msg.To)
		return unavailable("resend", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		span.RecordError(err)
		return unavailable("resend", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{Provider: "resend", StatusCode: resp.StatusCode, Body: string(respBody)}
		span.RecordError(perr)
		span.SetStatus(codes.Error, "rejected")
		s.logger.Error("resend returned error status", "status", resp.StatusCode, "body", string(respBody), "to", msg.To)
		return perr
	}

	var decoded resendResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return fmt.Errorf("notify: resend malformed response: %w", err)
	}

	s.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "id", decoded.ID)
	return nil
}

var _ EmailSender = (*ResendSender)(nil)
