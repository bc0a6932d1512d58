package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"brankas/internal/backend"
	"brankas/internal/worker"
)

func (a *app) mirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage the spreadsheet ledger mirror",
	}
	cmd.AddCommand(a.mirrorBackfillCmd())
	return cmd
}

func (a *app) mirrorBackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Copy a user's stored transactions into the ledger sheet",
		Long: `Append every stored transaction of a user to the ledger sheet, oldest first.
Rows that are already mirrored are skipped, so the command is safe to rerun.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser(cmd)
			if err != nil {
				return err
			}
			res, cfg, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeBackend(res)
			if cfg.GoogleSpreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured: set GOOGLE_SPREADSHEET_ID or google_spreadsheet_id")
			}

			ledger, err := backend.NewLedger(cmd.Context(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, a.logger)
			if err != nil {
				return err
			}
			result, err := worker.NewMirrorWorker(ledger, a.logger).Backfill(cmd.Context(), res.Store, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions, %d mirrored, %d failed\n", result.Total, result.Synced, result.Errors)
			if result.Errors > 0 {
				return fmt.Errorf("%d transactions could not be mirrored", result.Errors)
			}
			return nil
		},
	}
	cmd.Flags().String("user", "", "user ID to backfill")
	return cmd
}
