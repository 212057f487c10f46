package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/config"
	matchdomain "github.com/smallbiznis/volunteerhub/internal/match/domain"
	notificationdomain "github.com/smallbiznis/volunteerhub/internal/notification/domain"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	hourdomain "github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Apply brings the schema up to date. Postgres runs the embedded SQL
// migrations; other dialects are created from the gorm models.
func Apply(conn *gorm.DB, cfg config.DatabaseConfig) error {
	if cfg.Type != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Rollback reverts the most recent SQL migration.
func Rollback(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := migrator.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return migrator, nil
}

// Source exposes the embedded SQL files as a migrate source.
func Source() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return driver, nil
}

// AutoMigrate creates the application tables from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&organizationdomain.Organization{},
		&authdomain.User{},
		&volunteerdomain.Profile{},
		&opportunitydomain.Opportunity{},
		&matchdomain.Match{},
		&hourdomain.Hour{},
		&notificationdomain.OutboxMessage{},
		&auditdomain.SystemLog{},
	)
}
