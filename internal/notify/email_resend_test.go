package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResend(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *ResendSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sender := NewResendSender(ResendConfig{
		APIKey:    "re_test",
		BaseURL:   srv.URL + "/",
		FromEmail: "ChinaExecution <info@chinaexecution.com>",
		Timeout:   timeout,
	}, nil)
	require.NotNil(t, sender)
	return sender
}

func TestNewResendSender_NilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewResendSender(ResendConfig{APIKey: "  "}, nil))
}

func TestResendSender_SendPostsPayload(t *testing.T) {
	var (
		gotPayload resendPayload
		gotHeaders http.Header
		gotPath    string
	)
	sender := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}, time.Second)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "lead@example.com",
		Subject: "Hello",
		Body:    "plain",
		HTML:    "<p>html</p>",
		ReplyTo: "info@chinaexecution.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "/emails", gotPath)
	assert.Equal(t, "Bearer re_test", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	_, err = uuid.Parse(gotHeaders.Get("Idempotency-Key"))
	assert.NoError(t, err, "idempotency key should be a uuid")

	assert.Equal(t, resendPayload{
		From:    "ChinaExecution <info@chinaexecution.com>",
		To:      "lead@example.com",
		Subject: "Hello",
		Text:    "plain",
		HTML:    "<p>html</p>",
		ReplyTo: "info@chinaexecution.com",
	}, gotPayload)
}

func TestResendSender_MessageFromOverridesDefault(t *testing.T) {
	var got resendPayload
	sender := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}, time.Second)

	require.NoError(t, sender.Send(context.Background(), EmailMessage{From: "Other <o@example.com>", To: "a@b.com"}))
	assert.Equal(t, "Other <o@example.com>", got.From)
}

func TestResendSender_ErrorStatus(t *testing.T) {
	sender := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"domain not verified"}`))
	}, time.Second)

	err := sender.Send(context.Background(), EmailMessage{To: "a@b.com", Subject: "x"})
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnprocessableEntity, perr.StatusCode)
	assert.Contains(t, perr.Body, "domain not verified")
	assert.False(t, errors.Is(err, ErrProviderUnavailable))
}

func TestResendSender_MalformedResponse(t *testing.T) {
	sender := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}, time.Second)

	err := sender.Send(context.Background(), EmailMessage{To: "a@b.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestResendSender_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	sender := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	err := sender.Send(context.Background(), EmailMessage{To: "a@b.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderUnavailable), "got %v", err)
}

func TestResendSender_NilReceiver(t *testing.T) {
	var sender *ResendSender
	assert.ErrorIs(t, sender.Send(context.Background(), EmailMessage{}), ErrMissingCredential)
}
