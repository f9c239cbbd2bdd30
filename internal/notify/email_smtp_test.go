package notify

import (
	"bufio"
	"context"
	"errors"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPSender_NilWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPSender(SMTPConfig{}, nil))
}

func TestSMTPSender_SendBuildsEmail(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{
		Host:      "smtp.example.com",
		Username:  "user",
		Password:  "pass",
		FromEmail: "ChinaExecution <info@chinaexecution.com>",
	}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "smtp.example.com:587", sender.addr)
	assert.NotNil(t, sender.auth)

	var got *email.Email
	sender.deliver = func(ctx context.Context, e *email.Email) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = e
		return nil
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "lead@example.com",
		Subject: "Hi",
		Body:    "text",
		HTML:    "<p>html</p>",
		ReplyTo: "info@chinaexecution.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "ChinaExecution <info@chinaexecution.com>", got.From)
	assert.Equal(t, []string{"lead@example.com"}, got.To)
	assert.Equal(t, []string{"info@chinaexecution.com"}, got.ReplyTo)
	assert.Equal(t, "text", string(got.Text))
	assert.Equal(t, "<p>html</p>", string(got.HTML))
}

func TestSMTPSender_SendError(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}, nil)
	sender.deliver = func(context.Context, *email.Email) error { return errors.New("554 rejected") }

	err := sender.Send(context.Background(), EmailMessage{To: "a@b.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "554 rejected")
	assert.False(t, errors.Is(err, ErrProviderUnavailable))
}

// smtpRelay is a minimal in-process relay. When stall is set it accepts
// connections and never answers.
type smtpRelay struct {
	ln    net.Listener
	stall bool

	mu    sync.Mutex
	conns []net.Conn
	data  []string
}

func startRelay(t *testing.T, stall bool) *smtpRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &smtpRelay{ln: ln, stall: stall}
	go r.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, c := range r.conns {
			_ = c.Close()
		}
	})
	return r
}

func (r *smtpRelay) config(timeout time.Duration) SMTPConfig {
	host, portStr, _ := net.SplitHostPort(r.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return SMTPConfig{
		Host:      host,
		Port:      port,
		FromEmail: "ChinaExecution <info@chinaexecution.com>",
		Timeout:   timeout,
	}
}

func (r *smtpRelay) serve() {
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conns = append(r.conns, conn)
		r.mu.Unlock()
		if !r.stall {
			go r.handle(conn)
		}
	}
}

func (r *smtpRelay) handle(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.Fields(line + " x")[0])
		switch verb {
		case "EHLO", "HELO":
			reply("250-localhost")
			reply("250 8BITMIME")
		case "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var body strings.Builder
			for {
				l, err := rd.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			r.mu.Lock()
			r.data = append(r.data, body.String())
			r.mu.Unlock()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPSender_DeliversThroughRelay(t *testing.T) {
	relay := startRelay(t, false)
	sender := NewSMTPSender(relay.config(2*time.Second), nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "lead@example.com",
		Subject: "New Lead",
		Body:    "hello",
		ReplyTo: "owner@example.com",
	})
	require.NoError(t, err)

	relay.mu.Lock()
	defer relay.mu.Unlock()
	require.Len(t, relay.data, 1)
	assert.Contains(t, relay.data[0], "Subject: New Lead")
	assert.Contains(t, relay.data[0], "Reply-To: owner@example.com")
	assert.Contains(t, relay.data[0], "hello")
}

func TestSMTPSender_StalledRelayLeavesNoGoroutines(t *testing.T) {
	relay := startRelay(t, true)
	sender := NewSMTPSender(relay.config(30*time.Millisecond), nil)

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		err := sender.Send(context.Background(), EmailMessage{To: "a@b.com", Subject: "x", Body: "y"})
		require.ErrorIs(t, err, ErrProviderUnavailable)
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}

func TestSMTPSender_UnreachableRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)
	sender := NewSMTPSender(SMTPConfig{Host: host, Port: port, FromEmail: "a@b.com", Timeout: time.Second}, nil)

	err = sender.Send(context.Background(), EmailMessage{To: "c@d.com"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
