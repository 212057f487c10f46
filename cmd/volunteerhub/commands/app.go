package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/observability"
	"github.com/smallbiznis/volunteerhub/pkg/db"
	"go.uber.org/fx"
)

const oneShotTimeout = 2 * time.Minute

// core is the infrastructure every command needs: configuration, logging,
// ids, the database pool and the clock.
func core() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	)
}

// RegisterSnowflake builds the id generator for the configured node.
func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

// runOnce starts app, which performs its work in invokes, then stops it.
func runOnce(app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}
