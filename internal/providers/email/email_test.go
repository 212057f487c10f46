package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildMessageHeaders(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	msg := string(buildMessage("noreply@example.org", "VolunteerHub", []string{"a@example.org", "b@example.org"}, "Hours Verified: Beach Cleanup", "<p>hi</p>", now))

	assert.Contains(t, msg, "From: VolunteerHub <noreply@example.org>\r\n")
	assert.Contains(t, msg, "To: a@example.org, b@example.org\r\n")
	assert.Contains(t, msg, "Subject: Hours Verified: Beach Cleanup\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPSendUsesConfiguredAddress(t *testing.T) {
	p := NewSMTP(SMTPConfig{Host: "mail.local", Port: 2525, From: "noreply@example.org"})

	var gotAddr, gotFrom string
	var gotTo []string
	p.send = func(addr string, _ smtp.Auth, from string, to []string, _ []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		return nil
	}

	err := p.Send(context.Background(), []string{" vol@example.org ", ""}, "Welcome", "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "noreply@example.org", gotFrom)
	assert.Equal(t, []string{"vol@example.org"}, gotTo)
}

func TestSMTPSendRequiresRecipients(t *testing.T) {
	p := NewSMTP(SMTPConfig{Host: "mail.local", Port: 25})
	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestSendGridPostsMail(t *testing.T) {
	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewSendGrid(SendGridConfig{APIKey: "SG.key", Host: srv.URL, From: "noreply@example.org", FromName: "VolunteerHub"})
	err := p.Send(context.Background(), []string{"vol@example.org"}, "Application Received: Food Drive", "<p>ok</p>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "Application Received: Food Drive", body["subject"])
}

func TestSendGridReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewSendGrid(SendGridConfig{APIKey: "bad", Host: srv.URL, From: "noreply@example.org"})
	err := p.Send(context.Background(), []string{"vol@example.org"}, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewFromConfigSelectsProvider(t *testing.T) {
	log := zap.NewNop()

	cases := map[string]string{
		"":         "log",
		"log":      "log",
		"SMTP":     "smtp",
		"sendgrid": "sendgrid",
		"pigeon":   "log",
	}
	for name, want := range cases {
		cfg := config.Config{Email: config.EmailConfig{Provider: name}}
		assert.Equal(t, want, NewFromConfig(cfg, log).Name(), "provider %q", name)
	}
}
