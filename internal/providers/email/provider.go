package email

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrNoRecipients  = errors.New("email_no_recipients")
	ErrNotConfigured = errors.New("email_provider_not_configured")
)

//go:generate mockgen -source=provider.go -destination=./mock/mock_provider.go -package=mock
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	Name() string
}

// LogProvider writes messages to the log instead of delivering them.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: log.Named("email.log")}
}

func (p *LogProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	p.log.Info("email suppressed",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

func (p *LogProvider) Name() string { return "log" }

func cleanRecipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
