package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect the transaction event outbox",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show pending, published and failed event counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, _, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeBackend(res)

			stats, err := res.Store.OutboxStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending %d\npublished %d\nfailed %d\n", stats.Pending, stats.Published, stats.Failed)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Move failed events back to pending",
		Long:  `Reset every failed event to pending so the server's relay publishes it again.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, _, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeBackend(res)

			if err := res.Store.RetryFailedEvents(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("Failed outbox events requeued")
			return nil
		},
	})
	return cmd
}
