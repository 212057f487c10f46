package render

import (
	"testing"

	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaults(t *testing.T) {
	r := New(config.NewStaticTemplateHolder(config.DefaultTemplateConfig()))

	out, err := r.Render("match.created", map[string]any{"Title": "Beach Cleanup", "Username": "sam"})
	require.NoError(t, err)
	assert.Equal(t, "Application Received: Beach Cleanup", out.Subject)
	assert.Contains(t, out.Body, "Hello sam")
	assert.Contains(t, out.Body, "<b>Beach Cleanup</b>")
}

func TestRenderStripsMarkupFromData(t *testing.T) {
	r := New(config.NewStaticTemplateHolder(config.DefaultTemplateConfig()))

	out, err := r.Render("match.created", map[string]any{
		"Title":    `<script>alert(1)</script>Food Drive`,
		"Username": `<img src=x onerror=alert(1)>sam`,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.Body, "<script>")
	assert.NotContains(t, out.Body, "onerror")
	assert.Contains(t, out.Body, "Food Drive")
	assert.Equal(t, "Application Received: Food Drive", out.Subject)
}

func TestRenderOverrideAndUnknownEvent(t *testing.T) {
	cfg := config.DefaultTemplateConfig()
	cfg.Templates["user.welcome"] = config.MessageTemplate{Subject: "Hi {{.Username}}", Body: "<p>{{.Role}}</p>"}
	r := New(config.NewStaticTemplateHolder(cfg))

	out, err := r.Render("user.welcome", map[string]any{"Username": "ana", "Role": "volunteer"})
	require.NoError(t, err)
	assert.Equal(t, "Hi ana", out.Subject)
	assert.Equal(t, "<p>volunteer</p>", out.Body)

	_, err = r.Render("billing.invoice", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestRenderDoesNotDoubleEscape(t *testing.T) {
	r := New(config.NewStaticTemplateHolder(config.DefaultTemplateConfig()))

	out, err := r.Render("match.created", map[string]any{"Title": "Food & Drink", "Username": "o'neil"})
	require.NoError(t, err)
	assert.Equal(t, "Application Received: Food & Drink", out.Subject)
	assert.Contains(t, out.Body, "Food &amp; Drink")
	assert.NotContains(t, out.Body, "&amp;amp;")
}
