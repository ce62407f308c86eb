package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Manage accounting periods and closing",
}

var (
	periodStart string
	periodEnd   string
	periodNotes string
)

var periodCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new accounting period",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(periodStart, periodEnd)
		if err != nil {
			return err
		}
		p, err := c.CreatePeriod(context.Background(), r.From, r.To, periodNotes)
		if err != nil {
			return err
		}
		fmt.Printf("Period created: %s %s\n", p.ID, rangeLabel(p.Range()))
		return nil
	},
}

var periodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounting periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		periods, err := c.ListPeriods(context.Background())
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			fmt.Println("No periods found.")
			return nil
		}
		fmt.Printf("%-36s %-10s %-10s %-8s %s\n", "ID", "START", "END", "STATUS", "CLOSED BY")
		fmt.Printf("%-36s %-10s %-10s %-8s %s\n", "----", "-----", "---", "------", "---------")
		for _, p := range periods {
			fmt.Printf("%-36s %-10s %-10s %-8s %s\n",
				p.ID, p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout), p.Status, p.ClosedBy)
		}
		return nil
	},
}

var periodDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an open period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeletePeriod(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Period %s deleted.\n", args[0])
		return nil
	},
}

var periodReopenCmd = &cobra.Command{
	Use:   "reopen [id]",
	Short: "Reopen a closed period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.ReopenPeriod(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Period %s is %s.\n", p.ID, p.Status)
		return nil
	},
}

// period close walks the closing workflow: preview, closing entries, lock.
var (
	closePL       string
	closeRetained string
	closeDate     string
	closeStatus   string
	closePreview  bool
	closeNoLock   bool
)

var periodCloseCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Close a period: preview, create closing entries and lock",
	Long: `Close a period. The income and expense balances of the period are moved into the
profit and loss account, the net result optionally swept to retained earnings, and the
period locked. Re-running the command resumes from where it stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		date, err := parseDate(closeDate)
		if err != nil {
			return err
		}
		req := ledger.ClosingRequest{
			PeriodID:                  args[0],
			ProfitLossAccountID:       closePL,
			RetainedEarningsAccountID: closeRetained,
			Date:                      date,
			Status:                    ledger.Status(closeStatus),
		}

		state, err := c.ClosingState(ctx, req.PeriodID)
		if err != nil {
			return err
		}
		if state.Period.Status == ledger.PeriodClosed {
			fmt.Printf("Period %s is already closed.\n", req.PeriodID)
			return nil
		}

		if len(state.Entries) == 0 {
			preview, err := c.PreviewClosing(ctx, req, ledger.DateRange{})
			if err != nil {
				return err
			}
			printClosingPreview(preview)
			if closePreview {
				return nil
			}
			entries, err := c.CreateClosingEntries(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("\n%d closing entries created.\n", len(entries))
		} else {
			fmt.Printf("Closing entries already exist (%d).\n", len(state.Entries))
		}

		if closePreview || closeNoLock {
			return nil
		}
		p, err := c.ClosePeriod(ctx, req.PeriodID)
		if err != nil {
			return err
		}
		fmt.Printf("Period %s closed.\n", p.ID)
		return nil
	},
}

func printClosingPreview(p *ledger.ClosingPreview) {
	w := 60
	fmt.Println()
	fmt.Println(center("CLOSING PREVIEW", w))
	fmt.Println(center(rangeLabel(p.Range), w))
	fmt.Println()
	for _, sec := range []struct {
		title string
		lines []ledger.ClosingLine
		total int64
	}{{"INCOME", p.Income, p.TotalIncome}, {"EXPENSES", p.Expenses, p.TotalExpenses}} {
		fmt.Printf("  %s\n", sec.title)
		for _, l := range sec.lines {
			fmt.Printf("  %-6s %-*s%15s\n", l.Code, w-24, truncate(l.Name, w-24), money(l.Balance))
		}
		fmt.Printf("%-*s%15s\n\n", w-15, "  Total "+sec.title, money(sec.total))
	}
	fmt.Printf("%-*s%15s\n", w-15, "  NET RESULT", money(p.NetResult))
}

func init() {
	periodCreateCmd.Flags().StringVar(&periodStart, "start", "", "First day of the period (YYYY-MM-DD)")
	periodCreateCmd.Flags().StringVar(&periodEnd, "end", "", "Last day of the period (YYYY-MM-DD)")
	periodCreateCmd.Flags().StringVar(&periodNotes, "notes", "", "Notes")
	periodCreateCmd.MarkFlagRequired("start")
	periodCreateCmd.MarkFlagRequired("end")

	periodCloseCmd.Flags().StringVar(&closePL, "pl", "", "Profit and loss account ID")
	periodCloseCmd.Flags().StringVar(&closeRetained, "retained", "", "Retained earnings account ID")
	periodCloseCmd.Flags().StringVar(&closeDate, "date", "", "Date of the closing entries (defaults to the period end)")
	periodCloseCmd.Flags().StringVar(&closeStatus, "status", "", "Status of the closing entries (defaults to completed)")
	periodCloseCmd.Flags().BoolVar(&closePreview, "preview", false, "Only show what would be closed")
	periodCloseCmd.Flags().BoolVar(&closeNoLock, "no-lock", false, "Create closing entries but leave the period open")
	periodCloseCmd.MarkFlagRequired("pl")

	periodCmd.AddCommand(periodCreateCmd)
	periodCmd.AddCommand(periodListCmd)
	periodCmd.AddCommand(periodDeleteCmd)
	periodCmd.AddCommand(periodCloseCmd)
	periodCmd.AddCommand(periodReopenCmd)

	rootCmd.AddCommand(periodCmd)
}
