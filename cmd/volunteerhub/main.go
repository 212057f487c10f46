package main

import (
	"fmt"
	"os"

	"github.com/smallbiznis/volunteerhub/cmd/volunteerhub/commands"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "volunteerhub",
		Short:         "Volunteer matching and hour tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		commands.ServeCmd(),
		commands.MigrateCmd(),
		commands.CreateAdminCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
