package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.True(t, Verify("correct horse battery", encoded))
	assert.False(t, Verify("wrong password", encoded))
	assert.False(t, NeedsRehash(encoded))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	assert.False(t, Verify("x", ""))
	assert.False(t, Verify("x", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
	assert.False(t, Verify("x", "$argon2id$v=19$m=abc,t=1,p=1$c2FsdA$aGFzaA"))
	assert.True(t, NeedsRehash("plain"))
	assert.True(t, NeedsRehash("$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"))
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate("short"), ErrTooShort)
	assert.ErrorIs(t, Validate("        "), ErrTooShort)
	assert.ErrorIs(t, Validate(strings.Repeat("a", MaxLength+1)), ErrTooLong)
	assert.NoError(t, Validate("long-enough"))
}
