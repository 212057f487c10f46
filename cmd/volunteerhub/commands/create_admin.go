package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/migration"
	"github.com/smallbiznis/volunteerhub/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// CreateAdminCmd provisions an admin account without the registration key.
// The password is read from --password or ADMIN_PASSWORD.
func CreateAdminCmd() *cobra.Command {
	var (
		username string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--username, --email and a password are required")
			}

			var created *authdomain.User
			app := fx.New(
				core(),
				fx.NopLogger,
				migration.Module,
				server.Services,
				fx.Invoke(func(lc fx.Lifecycle, svc authdomain.Service) {
					lc.Append(fx.Hook{
						OnStart: func(ctx context.Context) error {
							user, err := svc.CreateAdmin(ctx, authdomain.CreateAdminRequest{
								Username: username,
								Email:    email,
								Password: password,
							})
							if err != nil {
								return err
							}
							created = user
							return nil
						},
					})
				}),
			)
			if err := runOnce(app); err != nil {
				return err
			}

			fmt.Printf("admin %s created (id %s)\n", created.Username, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	return cmd
}
