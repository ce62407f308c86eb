package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show the default chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, e := range ledger.DefaultChart {
			indent := strings.Repeat("  ", len(e.Code)-1)
			flag := ""
			if e.ReadOnly {
				flag = " (summary)"
			}
			fmt.Printf("%-6s %-36s %-10s %s\n", e.Code, indent+e.Name+flag, e.Class, e.Description)
		}
		return nil
	},
}

var chartBalancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show every account balance with parents rolled up",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}
		nodes, err := c.AccountBalances(context.Background(), r)
		if err != nil {
			return err
		}
		printSection("ACCOUNTS ("+rangeLabel(r)+")", nodes, 70)
		return nil
	},
}

var chartSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default chart for the owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		accounts, err := c.SeedChart(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%d chart accounts in place.\n", len(accounts))
		return nil
	},
}

func init() {
	chartBalancesCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	chartBalancesCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
	chartCmd.AddCommand(chartSeedCmd)
	chartCmd.AddCommand(chartBalancesCmd)
	rootCmd.AddCommand(chartCmd)
}
