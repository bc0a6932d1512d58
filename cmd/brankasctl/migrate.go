package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"brankas/internal/storage"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  `Apply every pending migration to the SQLite database and report the resulting schema version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.DataBackend != "sqlite" {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.DataBackend)
			}
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			a.logger.Info("Migrations applied", "path", cfg.SQLiteDBPath, "version", version, "dirty", dirty)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
