package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/infrastructure/config"
	"github.com/inkwell-press/inkwell/internal/infrastructure/database"
	"github.com/inkwell-press/inkwell/internal/infrastructure/migration"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply the database schema and inspect its current state.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the schema",
		Long:  `Bring the database schema up to date with the persistence models.`,
		RunE:  runUp,
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema status",
		Long:  `Display which model tables exist in the connected database.`,
		RunE:  runStatus,
	}
}

func initEnv() (logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return logger.NewLogger(), nil
}

func runUp(cmd *cobra.Command, args []string) error {
	log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("applying schema", "environment", env)

	if err := migration.Run(database.Get(), log); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("schema applied successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Printf("\nSchema Status (%s):\n", env)
	for table, exists := range migration.Status(database.Get()) {
		marker := "missing"
		if exists {
			marker = "present"
		}
		fmt.Printf("  %-22s %s\n", table, marker)
	}

	return nil
}
