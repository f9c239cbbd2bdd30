package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// SMTPConfig holds configuration for a plain SMTP relay.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	Timeout   time.Duration
}

// SMTPSender relays messages through an SMTP server.
type SMTPSender struct {
	host    string
	addr    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
	logger  *logging.Logger

	// deliver is swapped in tests.
	deliver func(ctx context.Context, e *email.Email) error
}

// NewSMTPSender creates an SMTP sender. It returns nil when no host is configured.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	s := &SMTPSender{
		host:    cfg.Host,
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:    auth,
		from:    cfg.FromEmail,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	s.deliver = s.dial
	return s
}

// Send relays one message on the calling goroutine. The connection carries
// a deadline, so a stalled relay fails the send instead of holding it open.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.deliver == nil {
		return fmt.Errorf("notify: smtp relay not configured: %w", ErrMissingCredential)
	}

	e := email.NewEmail()
	e.From = firstNonEmpty(msg.From, s.from)
	e.To = []string{msg.To}
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.deliver(ctx, e); err != nil {
		if isTimeout(err) || ctx.Err() != nil {
			s.logger.Error("smtp send timed out", "error", err, "to", msg.To)
			return unavailable("smtp", err)
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			s.logger.Error("smtp relay unreachable", "error", err, "to", msg.To)
			return unavailable("smtp", err)
		}
		s.logger.Error("smtp send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
	return nil
}

// dial runs one SMTP transaction bounded by the context deadline.
func (s *SMTPSender) dial(ctx context.Context, e *email.Email) error {
	raw, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("notify: smtp encode message: %w", err)
	}
	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("notify: smtp from address: %w", err)
	}

	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from.Address); err != nil {
		return err
	}
	for _, rcpt := range e.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

var _ EmailSender = (*SMTPSender)(nil)
