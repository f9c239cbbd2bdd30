package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const htmlFailureMessage = "Submission failed. Please try again or contact us directly."

// Responder writes the outcome in the format the caller asked for: a
// redirect or plain text for browser form posts, JSON for everyone else.
type Responder struct {
	ThankYouPath string
	// ExposeDetail adds the underlying error text to JSON failures.
	ExposeDetail bool
}

type responseBody struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Success answers an accepted submission.
func (rs Responder) Success(w http.ResponseWriter, r *http.Request) {
	if wantsHTML(r) {
		w.Header().Set("Location", rs.ThankYouPath)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, responseBody{OK: true})
}

// Failure answers a rejected or failed submission.
func (rs Responder) Failure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(htmlFailureMessage))
		return
	}
	body := responseBody{OK: false, Error: publicMessage(err)}
	if rs.ExposeDetail && status >= http.StatusInternalServerError {
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}

// wantsHTML reports a classic form navigation; browsers send text/html in Accept.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/html")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrMissingDetails), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email"
	case errors.Is(err, ErrMissingDetails):
		return "Missing details/message"
	case errors.Is(err, ErrInvalidBody):
		return "Invalid request body"
	case errors.Is(err, ErrMissingCredential):
		return "Missing email provider credential"
	case errors.Is(err, ErrProviderUnavailable):
		return "Email provider unavailable"
	default:
		return "Send failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, body responseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
