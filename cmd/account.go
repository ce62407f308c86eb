package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

// account create
var (
	acctCreateName     string
	acctCreateCode     string
	acctCreateClass    string
	acctCreateType     string
	acctCreateOpening  string
	acctCreateReadOnly bool
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		acct := &ledger.Account{
			Name:       acctCreateName,
			Code:       acctCreateCode,
			Class:      ledger.AccountClass(acctCreateClass),
			Type:       ledger.AccountType(acctCreateType),
			IsOpen:     true,
			IsReadOnly: acctCreateReadOnly,
		}
		if acctCreateOpening != "" {
			if acct.OpeningBalance, err = ledger.ParseAmount(acctCreateOpening); err != nil {
				return err
			}
		}

		created, err := c.CreateAccount(context.Background(), acct)
		if err != nil {
			return err
		}

		fmt.Printf("Account created: %s %s (%s) %s\n",
			created.ID, created.Name, created.Code, ledger.ClassLabel(created.Class))
		return nil
	},
}

// account list
var (
	acctListClass  string
	acctListClosed bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		accounts, err := c.ListAccounts(context.Background(), ledger.AccountClass(acctListClass), acctListClosed)
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-36s %-6s %-30s %-12s %s\n", "ID", "CODE", "NAME", "CLASS", "FLAGS")
		fmt.Printf("%-36s %-6s %-30s %-12s %s\n", "----", "----", "----", "-----", "-----")
		for _, a := range accounts {
			flags := ""
			if a.IsReadOnly {
				flags += "read-only "
			}
			if !a.IsOpen {
				flags += "closed"
			}
			fmt.Printf("%-36s %-6s %-30s %-12s %s\n", a.ID, a.Code, truncate(a.Name, 30), ledger.ClassLabel(a.Class), flags)
		}
		return nil
	},
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		acct, err := c.GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %s\n", acct.ID)
		fmt.Printf("Name:      %s\n", acct.Name)
		fmt.Printf("Code:      %s\n", acct.Code)
		fmt.Printf("Class:     %s\n", ledger.ClassLabel(acct.Class))
		fmt.Printf("Normal:    %s\n", acct.NormalBalance())
		if acct.Type != "" {
			fmt.Printf("Type:      %s\n", acct.Type)
		}
		fmt.Printf("Open:      %v\n", acct.IsOpen)
		fmt.Printf("Read-only: %v\n", acct.IsReadOnly)
		fmt.Printf("Opening:   %s\n", money(acct.OpeningBalance))
		fmt.Printf("Created:   %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account close
var accountCloseCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Close an account to new postings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		acct, err := c.GetAccount(ctx, args[0])
		if err != nil {
			return err
		}
		acct.IsOpen = false
		if _, err := c.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		fmt.Printf("Account %s closed.\n", acct.ID)
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an account without postings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted.\n", args[0])
		return nil
	},
}

// account ledger
var acctLedgerFrom, acctLedgerTo string

var accountLedgerCmd = &cobra.Command{
	Use:   "ledger [id]",
	Short: "Show the running balance register of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(acctLedgerFrom, acctLedgerTo)
		if err != nil {
			return err
		}
		l, err := c.AccountLedger(context.Background(), args[0], r)
		if err != nil {
			return err
		}
		printAccountLedger(l)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Hierarchical account code, e.g. 114")
	accountCreateCmd.Flags().StringVar(&acctCreateClass, "class", "", "asset, liability, equity, income or expense")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Legacy side restriction: debit, credit or neutral")
	accountCreateCmd.Flags().StringVar(&acctCreateOpening, "opening", "", "Opening balance, e.g. 1500.00")
	accountCreateCmd.Flags().BoolVar(&acctCreateReadOnly, "read-only", false, "Summary account that takes no postings")
	accountCreateCmd.MarkFlagRequired("name")

	accountListCmd.Flags().StringVar(&acctListClass, "class", "", "Filter by class")
	accountListCmd.Flags().BoolVar(&acctListClosed, "all", false, "Include closed accounts")

	accountLedgerCmd.Flags().StringVar(&acctLedgerFrom, "from", "", "Start date (YYYY-MM-DD)")
	accountLedgerCmd.Flags().StringVar(&acctLedgerTo, "to", "", "End date (YYYY-MM-DD)")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountCloseCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountLedgerCmd)

	rootCmd.AddCommand(accountCmd)
}
