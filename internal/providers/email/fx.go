package email

import (
	"strings"

	"github.com/smallbiznis/volunteerhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig selects the provider named by EMAIL_PROVIDER. Unknown names
// fall back to the log provider.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	emailCfg := cfg.Email
	switch strings.ToLower(strings.TrimSpace(emailCfg.Provider)) {
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     emailCfg.SMTP.Host,
			Port:     emailCfg.SMTP.Port,
			Username: emailCfg.SMTP.Username,
			Password: emailCfg.SMTP.Password,
			From:     emailCfg.FromEmail,
			FromName: emailCfg.FromName,
		})
	case "sendgrid":
		return NewSendGrid(SendGridConfig{
			APIKey:   emailCfg.SendGrid.APIKey,
			From:     emailCfg.FromEmail,
			FromName: emailCfg.FromName,
		})
	case "", "log":
		return NewLogProvider(log)
	default:
		log.Warn("unknown email provider, using log provider", zap.String("provider", emailCfg.Provider))
		return NewLogProvider(log)
	}
}
