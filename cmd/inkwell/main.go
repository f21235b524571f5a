package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/interfaces/cli/migrate"
	"github.com/inkwell-press/inkwell/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Inkwell - second-factor verification service",
		Long:  `Inkwell provides second-factor verification (authenticator apps, passkeys, recovery codes, and trusted devices) for the surrounding identity provider.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
