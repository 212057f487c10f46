// Package render turns outbox payloads into email subjects and HTML bodies.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/smallbiznis/volunteerhub/internal/config"
)

var ErrUnknownEvent = errors.New("unknown_notification_event")

type Rendered struct {
	Subject string
	Body    string
}

type Renderer struct {
	templates *config.TemplateHolder
	policy    *bluemonday.Policy
}

func New(templates *config.TemplateHolder) *Renderer {
	return &Renderer{
		templates: templates,
		policy:    bluemonday.StrictPolicy(),
	}
}

// Render executes the current template for event. String values in data are
// reduced to plain text before they reach either template; the body template
// escapes them again on output.
func (r *Renderer) Render(event string, data map[string]any) (Rendered, error) {
	tpl, ok := r.templates.Lookup(event)
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	clean := r.sanitize(data)

	subjectTpl, err := texttemplate.New(event + ".subject").Option("missingkey=zero").Parse(tpl.Subject)
	if err != nil {
		return Rendered{}, fmt.Errorf("parse subject %s: %w", event, err)
	}
	var subject bytes.Buffer
	if err := subjectTpl.Execute(&subject, clean); err != nil {
		return Rendered{}, fmt.Errorf("render subject %s: %w", event, err)
	}

	bodyTpl, err := htmltemplate.New(event + ".body").Option("missingkey=zero").Parse(tpl.Body)
	if err != nil {
		return Rendered{}, fmt.Errorf("parse body %s: %w", event, err)
	}
	var body bytes.Buffer
	if err := bodyTpl.Execute(&body, clean); err != nil {
		return Rendered{}, fmt.Errorf("render body %s: %w", event, err)
	}

	return Rendered{
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		Body:    body.String(),
	}, nil
}

func (r *Renderer) sanitize(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		if s, ok := value.(string); ok {
			out[key] = strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
			continue
		}
		out[key] = value
	}
	return out
}
