package migration_test

import (
	"io"
	"strings"
	"testing"

	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/migration"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSourceHasInitialMigration(t *testing.T) {
	source, err := migration.Source()
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	up, _, err := source.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)

	sql := string(body)
	for _, table := range []string{"users", "organizations", "volunteer_profiles", "opportunities", "matches", "volunteer_hours", "notification_outbox", "system_logs"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
	assert.True(t, strings.Contains(sql, "ux_matches_volunteer_opportunity ON matches (volunteer_id, opportunity_id)"))

	down, _, err := source.ReadDown(first)
	require.NoError(t, err)
	require.NoError(t, down.Close())
}

func TestApplyUsesModelsOutsidePostgres(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, migration.Apply(conn, config.DatabaseConfig{Type: "sqlite"}))

	migrator := conn.Migrator()
	for _, table := range []string{"users", "organizations", "volunteer_profiles", "opportunities", "matches", "volunteer_hours", "notification_outbox", "system_logs"} {
		assert.True(t, migrator.HasTable(table), table)
	}
	assert.True(t, migrator.HasIndex("matches", "ux_matches_volunteer_opportunity"))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, migration.RunMigrations(nil))
}
