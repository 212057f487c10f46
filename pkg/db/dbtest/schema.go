package dbtest

import (
	"github.com/smallbiznis/volunteerhub/internal/migration"
	"gorm.io/gorm"
)

// Migrate creates the application tables from the gorm models. Production
// postgres databases are migrated from the embedded SQL files instead.
func Migrate(conn *gorm.DB) error {
	return migration.AutoMigrate(conn)
}
