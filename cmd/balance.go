package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var reportFrom, reportTo string

var balanceCmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"report"},
	Short:   "Show balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}

		bs, err := c.BalanceSheet(context.Background(), r)
		if err != nil {
			return err
		}

		printBalanceSheet(bs)
		return nil
	},
}

var trialBalanceCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}

		tb, err := c.TrialBalance(context.Background(), r)
		if err != nil {
			return err
		}

		printTrialBalance(tb)
		return nil
	},
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Show income statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}

		is, err := c.IncomeStatement(context.Background(), r)
		if err != nil {
			return err
		}

		printIncomeStatement(is)
		return nil
	},
}

func printBalanceSheet(bs *ledger.BalanceSheet) {
	w := 60
	fmt.Println()
	fmt.Println(center("BALANCE SHEET", w))
	fmt.Println(center(rangeLabel(bs.Range), w))
	fmt.Println()

	printSection("ASSETS", bs.AssetAccounts, w)
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "Total Assets", money(bs.Totals.Assets))
	fmt.Println()

	printSection("LIABILITIES", bs.LiabilityAccounts, w)
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "Total Liabilities", money(bs.Totals.Liabilities))
	fmt.Println()

	printSection("EQUITY", bs.EquityAccounts, w)
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "Total Equity", money(bs.Totals.Equity))
	fmt.Println()

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, "Total L + E", money(bs.Totals.LiabilitiesAndEquity))
	if bs.Totals.UnclosedEarnings != 0 {
		fmt.Printf("%-*s%15s\n", w-15, "Unclosed earnings", money(bs.Totals.UnclosedEarnings))
	}

	if bs.IsBalanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Printf("\n  [UNBALANCED by %s]\n", money(bs.Difference))
	}
	printWarnings(bs.Warnings)
}

func printIncomeStatement(is *ledger.IncomeStatement) {
	w := 60
	fmt.Println()
	fmt.Println(center("INCOME STATEMENT", w))
	fmt.Println(center(rangeLabel(is.Range), w))
	fmt.Println()

	printSection("INCOME", is.IncomeAccounts, w)
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "Total Income", money(is.TotalIncome))
	fmt.Println()

	printSection("EXPENSES", is.ExpenseAccounts, w)
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "Total Expenses", money(is.TotalExpenses))
	fmt.Println()

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, "Net Income", money(is.NetIncome))
	printWarnings(is.Warnings)
}

// printSection prints an account tree, indenting each level of the chart.
func printSection(title string, nodes []ledger.AccountNode, w int) {
	fmt.Printf("  %s\n", title)
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, n := range ledger.Flatten(nodes) {
		indent := strings.Repeat("  ", n.Level)
		name := truncate(indent+n.Name, w-24)
		fmt.Printf("  %-6s %-*s%15s\n", n.Code, w-24, name, money(n.Balance))
	}
}

func printTrialBalance(tb *ledger.TrialBalance) {
	w := 70
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	fmt.Printf("  %-8s %-30s %15s %15s\n", "CODE", "NAME", "DEBIT", "CREDIT")
	fmt.Printf("  %-8s %-30s %15s %15s\n", "----", "----", "-----", "------")

	for _, l := range tb.Lines {
		debit := ""
		credit := ""
		if l.Debit > 0 {
			debit = money(l.Debit)
		}
		if l.Credit > 0 {
			credit = money(l.Credit)
		}
		fmt.Printf("  %-8s %-30s %15s %15s\n", l.Code, truncate(l.Name, 30), debit, credit)
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-39s %15s %15s\n", "TOTALS", money(tb.TotalDebits), money(tb.TotalCredits))

	if tb.IsBalanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Printf("\n  [UNBALANCED by %s]\n", money(tb.Difference))
	}
	printWarnings(tb.Warnings)
}

func printAccountLedger(l *ledger.AccountLedger) {
	fmt.Printf("\n%s %s (%s)\n", l.Account.Code, l.Account.Name, rangeLabel(l.Range))
	fmt.Printf("%-10s %-10s %-30s %14s %14s %15s\n", "DATE", "STATUS", "PAYEE", "DEBIT", "CREDIT", "BALANCE")
	fmt.Printf("%-10s %-10s %-30s %14s %14s %15s\n", "", "", "Opening balance", "", "", money(l.OpeningBalance))
	for _, e := range l.Entries {
		debit, credit := "", ""
		if e.Debit > 0 {
			debit = money(e.Debit)
		}
		if e.Credit > 0 {
			credit = money(e.Credit)
		}
		fmt.Printf("%-10s %-10s %-30s %14s %14s %15s\n",
			e.Transaction.Date.Format(dateLayout), e.Transaction.Status, truncate(e.Transaction.Payee, 30),
			debit, credit, money(e.RunningBalance))
	}
	fmt.Printf("%-10s %-10s %-30s %14s %14s %15s\n", "", "", "Closing balance", "", "", money(l.ClosingBalance))
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{balanceCmd, trialBalanceCmd, incomeCmd} {
		cmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
	}
	balanceCmd.AddCommand(trialBalanceCmd)
	balanceCmd.AddCommand(incomeCmd)
	rootCmd.AddCommand(balanceCmd)
}
