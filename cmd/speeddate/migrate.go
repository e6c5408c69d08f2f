package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/speeddate-scheduler/internal/config"
	"github.com/example/speeddate-scheduler/internal/persistence/sqlite"
)

func newMigrateCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)

			cfg, err := config.Load()
			if err != nil {
				logger.Error("failed to load configuration", "error", err)
				return err
			}

			storage, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
			if err != nil {
				logger.Error("failed to open storage", "error", err)
				return err
			}
			defer storage.Close()

			if err := storage.Migrate(context.Background()); err != nil {
				logger.Error("failed to apply migrations", "error", err)
				return err
			}

			logger.Info("migrations applied", "dsn", cfg.SQLiteDSN)
			return nil
		},
	}
}
