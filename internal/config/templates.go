package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// MessageTemplate is a subject/body pair rendered for one notification event.
type MessageTemplate struct {
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

// TemplateConfig maps notification event names to templates.
type TemplateConfig struct {
	Templates map[string]MessageTemplate `mapstructure:"templates"`
}

func DefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{
		Templates: map[string]MessageTemplate{
			"user.welcome": {
				Subject: "Welcome to VolunteerHub",
				Body:    `<p>Hello {{.Username}},</p><p>Your {{.Role}} account is ready.</p>`,
			},
			"match.created": {
				Subject: "Application Received: {{.Title}}",
				Body:    `<p>Hello {{.Username}},</p><p>Your application for <b>{{.Title}}</b> is being reviewed.</p>`,
			},
			"match.status_changed": {
				Subject: "Application Update: {{.Title}}",
				Body:    `<p>Hello {{.Username}},</p><p>Your application for <b>{{.Title}}</b> {{.StatusMessage}}.</p>`,
			},
			"hours.verified": {
				Subject: "Hours {{.Decision}}: {{.Title}}",
				Body:    `<p>Hello {{.Username}},</p><p>Your {{.Hours}} hours logged on {{.Date}} for <b>{{.Title}}</b> were {{.DecisionLower}}.</p>`,
			},
			"opportunity.reminder": {
				Subject: "Reminder: {{.Title}} starts in {{.Days}} days",
				Body:    `<p>Hello {{.Username}},</p><p><b>{{.Title}}</b> starts on {{.StartDate}} at {{.Location}}.</p>`,
			},
		},
	}
}

type TemplateHolder struct {
	current atomic.Value // holds TemplateConfig
}

// NewTemplateHolder loads notification templates from NOTIFY_TEMPLATES_PATH (or
// ./notifications.yml) and keeps them hot-reloaded. Missing files fall back to defaults.
func NewTemplateHolder(cfg Config) (*TemplateHolder, error) {
	// Event names contain dots, so keys are split on "::" instead.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yml")

	if path := strings.TrimSpace(cfg.Notification.TemplatesPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("notifications")
		v.AddConfigPath("/etc/volunteerhub")
		v.AddConfigPath(".")
	}

	holder := &TemplateHolder{}
	holder.current.Store(DefaultTemplateConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return holder, nil
		}
		if cfg.Notification.TemplatesPath != "" {
			return nil, fmt.Errorf("read templates %s: %w", filepath.Base(cfg.Notification.TemplatesPath), err)
		}
		return holder, nil
	}

	loaded, err := decodeTemplates(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(loaded)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeTemplates(v)
		if err != nil {
			zap.L().Warn("notification templates reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("notification templates reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticTemplateHolder returns a holder that never reloads.
func NewStaticTemplateHolder(cfg TemplateConfig) *TemplateHolder {
	holder := &TemplateHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *TemplateHolder) Get() TemplateConfig {
	return h.current.Load().(TemplateConfig)
}

// Lookup returns the template for event, falling back to the built-in default.
func (h *TemplateHolder) Lookup(event string) (MessageTemplate, bool) {
	if tpl, ok := h.Get().Templates[event]; ok {
		return tpl, true
	}
	tpl, ok := DefaultTemplateConfig().Templates[event]
	return tpl, ok
}

func decodeTemplates(v *viper.Viper) (TemplateConfig, error) {
	var cfg TemplateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return TemplateConfig{}, err
	}
	if err := validateTemplateConfig(cfg); err != nil {
		return TemplateConfig{}, err
	}
	merged := DefaultTemplateConfig()
	for event, tpl := range cfg.Templates {
		merged.Templates[event] = tpl
	}
	return merged, nil
}

func validateTemplateConfig(cfg TemplateConfig) error {
	for event, tpl := range cfg.Templates {
		if strings.TrimSpace(tpl.Subject) == "" {
			return fmt.Errorf("templates.%s.subject cannot be empty", event)
		}
		if strings.TrimSpace(tpl.Body) == "" {
			return fmt.Errorf("templates.%s.body cannot be empty", event)
		}
	}
	return nil
}
