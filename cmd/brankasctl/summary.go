package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"brankas/internal/core"
	"brankas/internal/services"
)

func (a *app) summaryCmd() *cobra.Command {
	var (
		period string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income and expense totals for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser(cmd)
			if err != nil {
				return err
			}
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			res, _, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeBackend(res)

			d, err := services.NewDashboardService(res.Store, nil, a.logger).Get(cmd.Context(), user, p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Summary  core.Summary        `json:"summary"`
					Balances core.BalanceSummary `json:"balances"`
				}{d.Summary, d.Balances})
			}
			fmt.Fprintf(out, "%s since %s\n", d.Summary.Period, d.Summary.Start)
			fmt.Fprintf(out, "  income   %s\n", d.Summary.Income.StringFixed(2))
			fmt.Fprintf(out, "  expense  %s\n", d.Summary.Expense.StringFixed(2))
			fmt.Fprintf(out, "  net      %s\n", d.Summary.Net.StringFixed(2))
			fmt.Fprintf(out, "balance    %s (savings %s, daily %s)\n",
				d.Balances.Total.StringFixed(2), d.Balances.Savings.StringFixed(2), d.Balances.Daily.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().String("user", "", "user ID to summarise")
	cmd.Flags().StringVar(&period, "period", "monthly", "daily, weekly, monthly or yearly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
