package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdminRequiresCredentials(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")

	cmd := CreateAdminCmd()
	cmd.SetArgs([]string{"--username", "root"})
	cmd.SilenceUsage = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCommandFlags(t *testing.T) {
	assert.NotNil(t, MigrateCmd().Flags().Lookup("down"))
	assert.NotNil(t, ServeCmd().Flags().Lookup("no-workers"))

	admin := CreateAdminCmd()
	for _, name := range []string{"username", "email", "password"} {
		assert.NotNil(t, admin.Flags().Lookup(name), name)
	}
}
