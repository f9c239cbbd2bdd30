package leads

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/chowjack2099/China-side-Execution/internal/observability/metrics"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

const (
	defaultMaxBodyBytes = 64 << 10
	multipartMemory     = 1 << 20
)

// LeadDispatcher sends the notifications for a validated submission.
type LeadDispatcher interface {
	Ready() error
	Dispatch(ctx context.Context, sub *Submission) (Outcome, error)
}

// HandlerConfig groups the handler's collaborators other than the dispatcher.
type HandlerConfig struct {
	Normalizer   Normalizer
	Responder    Responder
	Metrics      *metrics.LeadMetrics
	MaxBodyBytes int64
}

// Handler handles lead form submissions.
type Handler struct {
	dispatcher   LeadDispatcher
	normalizer   Normalizer
	responder    Responder
	metrics      *metrics.LeadMetrics
	maxBodyBytes int64
	logger       *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(dispatcher LeadDispatcher, cfg HandlerConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		dispatcher:   dispatcher,
		normalizer:   cfg.Normalizer,
		responder:    cfg.Responder,
		metrics:      cfg.Metrics,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger,
	}
}

// ServeHTTP handles POST submissions. OPTIONS answers 204; anything else 405.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.dispatcher.Ready(); err != nil {
		h.logger.Error("lead intake misconfigured", "error", err)
		h.metrics.ObserveSubmission("misconfigured")
		h.responder.Failure(w, r, err)
		return
	}

	fields, err := h.readFields(w, r)
	if err != nil {
		h.logger.Warn("failed to read lead body", "error", err)
		h.metrics.ObserveSubmission("invalid_body")
		h.responder.Failure(w, r, err)
		return
	}

	sub, err := h.normalizer.Normalize(fields)
	if err != nil {
		h.logger.Info("lead rejected", "reason", err.Error())
		h.metrics.ObserveSubmission(rejectionLabel(err))
		h.responder.Failure(w, r, err)
		return
	}
	if sub.Spam {
		h.logger.Warn("honeypot field filled, discarding submission", "remote_ip", r.RemoteAddr)
		h.metrics.ObserveSubmission("spam")
		h.responder.Success(w, r)
		return
	}

	if _, err := h.dispatcher.Dispatch(r.Context(), sub); err != nil {
		h.metrics.ObserveSubmission("failed")
		h.responder.Failure(w, r, err)
		return
	}

	h.metrics.ObserveSubmission("accepted")
	h.responder.Success(w, r)
}

// readFields collects the submission fields. A form already parsed upstream
// wins; multipart bodies go through ParseMultipartForm; everything else is
// read raw and decoded by ParseFields.
func (h *Handler) readFields(w http.ResponseWriter, r *http.Request) (Fields, error) {
	contentType := r.Header.Get("Content-Type")
	media := mediaType(contentType)
	// ParseForm leaves an empty, non-nil PostForm for JSON and multipart
	// bodies without reading them, so an empty map only counts for
	// urlencoded requests.
	if r.PostForm != nil && (len(r.PostForm) > 0 || media == "application/x-www-form-urlencoded") {
		return FieldsFromValues(r.PostForm), nil
	}

	if media == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}
		return FieldsFromValues(r.PostForm), nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}
	return ParseFields(contentType, raw), nil
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "invalid_email"
	case errors.Is(err, ErrMissingDetails):
		return "missing_details"
	default:
		return "invalid"
	}
}
