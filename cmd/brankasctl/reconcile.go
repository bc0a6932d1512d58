package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brankas/internal/services"
)

func (a *app) reconcileCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored balances with transaction history",
		Long: `Recompute every account balance of a user from its opening balance and
transaction legs and list the accounts whose stored balance drifted.
With --fix the stored balances are overwritten with the recomputed ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser(cmd)
			if err != nil {
				return err
			}
			res, _, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeBackend(res)

			rec := services.NewReconcileService(res.Store, nil, a.logger)
			var report services.ReconcileReport
			if fix {
				report, err = rec.Fix(cmd.Context(), user)
			} else {
				report, err = rec.Check(cmd.Context(), user)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Clean() {
				fmt.Fprintf(out, "%d accounts checked, balances match\n", report.Accounts)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tACCOUNT\tSTORED\tEXPECTED\tDELTA")
			for _, d := range report.Drifts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", d.AccountID, d.Name,
					d.Stored.StringFixed(2), d.Expected.StringFixed(2), d.Delta.StringFixed(2))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if report.Fixed {
				fmt.Fprintf(out, "fixed %d accounts\n", len(report.Drifts))
			}
			return nil
		},
	}
	cmd.Flags().String("user", "", "user ID to reconcile")
	cmd.Flags().BoolVar(&fix, "fix", false, "overwrite drifted balances")
	return cmd
}
