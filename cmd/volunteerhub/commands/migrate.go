package commands

import (
	"fmt"

	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateCmd applies the schema, or rolls back the latest migration with --down.
func MigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				core(),
				fx.NopLogger,
				fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
					log = log.Named("migrate")
					if !down {
						if err := migration.Apply(conn, cfg.Database); err != nil {
							return err
						}
						log.Info("database schema up to date", zap.String("dialect", cfg.Database.Type))
						return nil
					}

					if cfg.Database.Type != "postgres" {
						return fmt.Errorf("rollback is only supported for postgres, got %q", cfg.Database.Type)
					}
					sqlDB, err := conn.DB()
					if err != nil {
						return err
					}
					if err := migration.Rollback(sqlDB); err != nil {
						return err
					}
					log.Info("rolled back one migration")
					return nil
				}),
			)
			return runOnce(app)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}
