package commands

import (
	"github.com/smallbiznis/volunteerhub/internal/migration"
	"github.com/smallbiznis/volunteerhub/internal/notification"
	"github.com/smallbiznis/volunteerhub/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// ServeCmd runs the HTTP API together with the notification workers.
func ServeCmd() *cobra.Command {
	var noWorkers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			options := []fx.Option{
				core(),
				migration.Module,
				server.Module,
			}
			if !noWorkers {
				options = append(options, notification.Workers)
			}

			app := fx.New(options...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "do not start the notification dispatcher and reminder job")
	return cmd
}
