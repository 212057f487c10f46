package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSendGridHost = "https://api.sendgrid.com"

type SendGridConfig struct {
	APIKey   string
	Host     string
	From     string
	FromName string
}

type SendGridProvider struct {
	cfg SendGridConfig
}

func NewSendGrid(cfg SendGridConfig) *SendGridProvider {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = defaultSendGridHost
	}
	return &SendGridProvider{cfg: cfg}
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

func (p *SendGridProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	recipients := cleanRecipients(to)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return ErrNotConfigured
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(p.cfg.FromName, p.cfg.From))
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, addr := range recipients {
		personalization.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/html", htmlBody))

	request := sendgrid.GetRequest(p.cfg.APIKey, "/v3/mail/send", p.cfg.Host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", response.StatusCode)
	}
	return nil
}
