package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chowjack2099/China-side-Execution/internal/notify"
	"github.com/chowjack2099/China-side-Execution/internal/observability/metrics"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

var dispatchTracer = otel.Tracer("leadintake.internal.leads.dispatch")

const (
	kindOwner          = "owner"
	kindAcknowledgment = "acknowledgment"
)

// Outcome is the result of a dispatch whose owner notification went out.
type Outcome struct {
	OK bool
	// AcknowledgmentErr is diagnostic only; it never changes OK.
	AcknowledgmentErr error
}

// Dispatcher sends the owner notification and the lead acknowledgment.
type Dispatcher struct {
	sender   notify.EmailSender
	identity Identity
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher. A nil sender means the provider
// credential is missing; every Dispatch then fails with ErrMissingCredential.
func NewDispatcher(sender notify.EmailSender, identity Identity, m *metrics.LeadMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		sender:   sender,
		identity: identity,
		metrics:  m,
		logger:   logger,
	}
}

// Ready reports whether the dispatcher can send at all.
func (d *Dispatcher) Ready() error {
	if d == nil || d.sender == nil {
		return ErrMissingCredential
	}
	return nil
}

// Dispatch sends the owner notification and, only if it succeeded, the
// acknowledgment. An acknowledgment failure is logged and reported in
// Outcome.AcknowledgmentErr but never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *Submission) (Outcome, error) {
	if err := d.Ready(); err != nil {
		return Outcome{}, err
	}

	ctx, span := dispatchTracer.Start(ctx, "leads.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("lead.source", sub.Source))

	owner, err := d.identity.OwnerNotification(sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render owner notification")
		return Outcome{}, fmt.Errorf("%w: render: %w", ErrOwnerNotificationFailed, err)
	}
	if err := d.send(ctx, kindOwner, owner); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "owner notification")
		d.logger.Error("owner notification failed", "error", err, "source", sub.Source)
		return Outcome{}, classifySendError(err)
	}

	outcome := Outcome{OK: true}

	ack, err := d.identity.Acknowledgment(sub)
	if err == nil {
		err = d.send(ctx, kindAcknowledgment, ack)
	}
	if err != nil {
		span.AddEvent("acknowledgment failed", trace.WithAttributes(attribute.String("error", err.Error())))
		d.logger.Warn("acknowledgment send failed", "error", err, "to", sub.Email)
		outcome.AcknowledgmentErr = err
	}

	d.logger.Info("lead dispatched", "source", sub.Source, "acknowledged", outcome.AcknowledgmentErr == nil)
	return outcome, nil
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg notify.EmailMessage) error {
	start := time.Now()
	err := d.sender.Send(ctx, msg)
	d.metrics.ObserveSend(kind, err == nil, time.Since(start).Seconds())
	return err
}

func classifySendError(err error) error {
	switch {
	case errors.Is(err, notify.ErrMissingCredential):
		return fmt.Errorf("%w: %w", ErrMissingCredential, err)
	case errors.Is(err, notify.ErrProviderUnavailable):
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrOwnerNotificationFailed, err)
	}
}
