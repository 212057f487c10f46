package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****6789", MaskSecret("123456789"))
	assert.Equal(t, "a****@example.com", MaskSecret("alice@example.com"))
}

func TestMaskSensitive(t *testing.T) {
	out := MaskSensitive(map[string]any{
		"email":  "bob@example.org",
		"status": "accepted",
		"nested": map[string]any{"token": "abcdefgh", "hours": 4.5},
		"":       "dropped",
	})

	assert.Equal(t, "b****@example.org", out["email"])
	assert.Equal(t, "accepted", out["status"])
	assert.Equal(t, map[string]any{"token": "****efgh", "hours": 4.5}, out["nested"])
	assert.NotContains(t, out, "")
	assert.Nil(t, MaskSensitive(nil))
}
