package migration

import (
	"github.com/smallbiznis/volunteerhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.Database.AutoMigrate {
			log.Info("automatic migrations disabled")
			return nil
		}
		if err := Apply(conn, cfg.Database); err != nil {
			return err
		}
		log.Info("database schema up to date", zap.String("dialect", cfg.Database.Type))
		return nil
	}),
)
