package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var transactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"txn"},
	Short:   "Manage transactions",
}

// transaction create
var (
	txnDate     string
	txnAmount   string
	txnPayee    string
	txnCustomer string
	txnNotes    string
	txnTags     []string
	txnDebit    string
	txnCredit   string
	txnAccount  string
	txnStatus   string
)

func transactionFromFlags() (*ledger.Transaction, error) {
	date, err := parseDate(txnDate)
	if err != nil {
		return nil, err
	}
	amount, err := ledger.ParseAmount(txnAmount)
	if err != nil {
		return nil, err
	}
	return &ledger.Transaction{
		Date:            date,
		Amount:          amount,
		Payee:           txnPayee,
		CustomerID:      txnCustomer,
		Notes:           txnNotes,
		Tags:            txnTags,
		AccountID:       txnAccount,
		DebitAccountID:  txnDebit,
		CreditAccountID: txnCredit,
		Status:          ledger.Status(txnStatus),
	}, nil
}

var transactionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new transaction",
	Long: `Create a transaction. In double-entry mode pass --debit and --credit account IDs.
Drafts may be incomplete; any other status needs a payee or customer and both accounts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		txn, err := transactionFromFlags()
		if err != nil {
			return err
		}

		created, err := c.CreateTransaction(context.Background(), txn)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction created: %s [%s]\n", created.ID, created.Status)
		printPostings(created)
		return nil
	},
}

// transaction split
var txnSplitParts []string // format: "debit:credit:amount"

var transactionSplitCmd = &cobra.Command{
	Use:   "split",
	Short: "Create a split transaction",
	Long: `Create one payment split across several postings.
Each --part is formatted as "debit_account_id:credit_account_id:amount".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		date, err := parseDate(txnDate)
		if err != nil {
			return err
		}
		parent := &ledger.Transaction{
			Date: date, Payee: txnPayee, CustomerID: txnCustomer, Notes: txnNotes, Status: ledger.Status(txnStatus),
		}
		var children []*ledger.Transaction
		for _, p := range txnSplitParts {
			parts := strings.SplitN(p, ":", 3)
			if len(parts) != 3 {
				return fmt.Errorf("invalid part %q, expected debit:credit:amount", p)
			}
			amount, err := ledger.ParseAmount(parts[2])
			if err != nil {
				return err
			}
			children = append(children, &ledger.Transaction{
				Date: date, Amount: amount, DebitAccountID: parts[0], CreditAccountID: parts[1],
			})
		}

		res, err := c.CreateSplit(context.Background(), parent, children)
		if err != nil {
			return err
		}
		fmt.Printf("Split created: %s total %s\n", res.Parent.ID, money(res.Parent.Amount))
		for _, ch := range res.Children {
			fmt.Printf("  %s DR %s CR %s %15s\n", ch.ID, ch.DebitAccountID, ch.CreditAccountID, money(ch.Amount))
		}
		return nil
	},
}

// transaction list
var (
	txnListAccountID string
	txnListStatus    string
	txnListFrom      string
	txnListTo        string
	txnListPosted    bool
	txnListLimit     int
)

var transactionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		r, err := parseRange(txnListFrom, txnListTo)
		if err != nil {
			return err
		}

		txns, err := c.ListTransactions(context.Background(), client.TxnQuery{
			AccountID:     txnListAccountID,
			Range:         r,
			Status:        ledger.Status(txnListStatus),
			ExcludeDrafts: txnListPosted,
			Limit:         txnListLimit,
		})
		if err != nil {
			return err
		}

		if len(txns) == 0 {
			fmt.Println("No transactions found.")
			return nil
		}

		fmt.Printf("%-36s %-10s %-10s %15s %s\n", "ID", "DATE", "STATUS", "AMOUNT", "PAYEE")
		fmt.Printf("%-36s %-10s %-10s %15s %s\n", "----", "----", "------", "------", "-----")
		for _, t := range txns {
			payee := t.Payee
			if payee == "" {
				payee = t.CustomerID
			}
			if t.SplitType == ledger.SplitParent {
				payee += " (split)"
			}
			fmt.Printf("%-36s %-10s %-10s %15s %s\n",
				t.ID, t.Date.Format(dateLayout), t.Status, money(t.Amount), truncate(payee, 40))
		}
		return nil
	},
}

// transaction get
var transactionGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get transaction details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		txn, err := c.GetTransaction(ctx, args[0])
		if err != nil {
			return err
		}
		docs, err := c.ListDocuments(ctx, txn.ID)
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %s\n", txn.ID)
		fmt.Printf("Date:      %s\n", txn.Date.Format(dateLayout))
		fmt.Printf("Status:    %s\n", txn.Status)
		fmt.Printf("Amount:    %s\n", money(txn.Amount))
		fmt.Printf("Payee:     %s\n", txn.Payee)
		if txn.CustomerID != "" {
			fmt.Printf("Customer:  %s\n", txn.CustomerID)
		}
		if txn.Notes != "" {
			fmt.Printf("Notes:     %s\n", txn.Notes)
		}
		if len(txn.Tags) > 0 {
			fmt.Printf("Tags:      %s\n", strings.Join(txn.Tags, ", "))
		}
		if txn.SplitGroupID != "" {
			fmt.Printf("Split:     %s of %s\n", txn.SplitType, txn.SplitGroupID)
		}
		if txn.ClosingPeriodID != "" {
			fmt.Printf("Closing:   period %s\n", txn.ClosingPeriodID)
		}
		fmt.Printf("Documents: %d\n", len(docs))
		printPostings(txn)
		return nil
	},
}

func printPostings(txn *ledger.Transaction) {
	postings := txn.Postings()
	if len(postings) == 0 {
		fmt.Println("Postings:  none")
		return
	}
	fmt.Println("Postings:")
	for _, p := range postings {
		side := "DR"
		if p.Side == ledger.Credit {
			side = "CR"
		}
		fmt.Printf("  %s %-36s %15s\n", side, p.AccountID, money(p.Amount))
	}
}

// transaction advance
var (
	txnAdvanceExpected string
	txnAdvanceNotes    string
)

var transactionAdvanceCmd = &cobra.Command{
	Use:   "advance [id]",
	Short: "Move a transaction to its next status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Advance(context.Background(), args[0], ledger.Status(txnAdvanceExpected), txnAdvanceNotes)
		if err != nil {
			return err
		}
		if res.Blocked {
			fmt.Printf("Transaction %s stays %s:\n", args[0], res.Transaction.Status)
			for _, u := range res.Unmet {
				fmt.Printf("  - %s\n", u)
			}
			return nil
		}
		fmt.Printf("Transaction %s is now %s.\n", res.Transaction.ID, res.Transaction.Status)
		return nil
	},
}

var txnUnreconcileReason string

var transactionUnreconcileCmd = &cobra.Command{
	Use:   "unreconcile [id]",
	Short: "Move a reconciled transaction back to completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		txn, err := c.Unreconcile(context.Background(), args[0], txnUnreconcileReason)
		if err != nil {
			return err
		}
		fmt.Printf("Transaction %s is now %s.\n", txn.ID, txn.Status)
		return nil
	},
}

var transactionHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show the status history of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		history, err := c.History(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No status changes recorded.")
			return nil
		}
		fmt.Printf("%-20s %-10s %-10s %-16s %s\n", "WHEN", "FROM", "TO", "BY", "NOTES")
		for _, h := range history {
			fmt.Printf("%-20s %-10s %-10s %-16s %s\n",
				h.ChangedAt.Format("2006-01-02 15:04:05"), h.From, h.To, truncate(h.ChangedBy, 16), h.Notes)
		}
		return nil
	},
}

var transactionDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a transaction that is not reconciled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteTransaction(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Transaction %s deleted.\n", args[0])
		return nil
	},
}

// transaction attach
var (
	txnAttachType string
	txnAttachName string
)

var transactionAttachCmd = &cobra.Command{
	Use:   "attach [id]",
	Short: "Record a supporting document against a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		doc, err := c.AttachDocument(context.Background(), args[0], txnAttachType, txnAttachName)
		if err != nil {
			return err
		}
		fmt.Printf("Document %s attached to %s.\n", doc.ID, doc.TransactionID)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{transactionCreateCmd, transactionSplitCmd} {
		cmd.Flags().StringVar(&txnDate, "date", "", "Transaction date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&txnPayee, "payee", "", "Payee")
		cmd.Flags().StringVar(&txnCustomer, "customer", "", "Customer ID")
		cmd.Flags().StringVar(&txnNotes, "notes", "", "Notes")
		cmd.Flags().StringVar(&txnStatus, "status", "", "draft, pending or completed")
		cmd.MarkFlagRequired("date")
	}
	transactionCreateCmd.Flags().StringVar(&txnAmount, "amount", "", "Amount, e.g. 125.50")
	transactionCreateCmd.Flags().StringSliceVar(&txnTags, "tag", nil, "Tag (can be repeated)")
	transactionCreateCmd.Flags().StringVar(&txnDebit, "debit", "", "Debit account ID")
	transactionCreateCmd.Flags().StringVar(&txnCredit, "credit", "", "Credit account ID")
	transactionCreateCmd.Flags().StringVar(&txnAccount, "account", "", "Single account ID (legacy mode)")
	transactionCreateCmd.MarkFlagRequired("amount")

	transactionSplitCmd.Flags().StringSliceVar(&txnSplitParts, "part", nil, "Part in format debit:credit:amount (can be repeated)")
	transactionSplitCmd.MarkFlagRequired("part")

	transactionListCmd.Flags().StringVar(&txnListAccountID, "account", "", "Filter by account ID")
	transactionListCmd.Flags().StringVar(&txnListStatus, "status", "", "Filter by status")
	transactionListCmd.Flags().StringVar(&txnListFrom, "from", "", "Start date (YYYY-MM-DD)")
	transactionListCmd.Flags().StringVar(&txnListTo, "to", "", "End date (YYYY-MM-DD)")
	transactionListCmd.Flags().BoolVar(&txnListPosted, "posted", false, "Hide drafts")
	transactionListCmd.Flags().IntVar(&txnListLimit, "limit", 0, "Maximum rows")

	transactionAdvanceCmd.Flags().StringVar(&txnAdvanceExpected, "expected", "", "Fail unless the transaction is currently in this status")
	transactionAdvanceCmd.Flags().StringVar(&txnAdvanceNotes, "notes", "", "Notes for the history log")

	transactionUnreconcileCmd.Flags().StringVar(&txnUnreconcileReason, "reason", "", "Why the reconciliation is undone")
	transactionUnreconcileCmd.MarkFlagRequired("reason")

	transactionAttachCmd.Flags().StringVar(&txnAttachType, "type", "", "Document type ID")
	transactionAttachCmd.Flags().StringVar(&txnAttachName, "name", "", "Document name")
	transactionAttachCmd.MarkFlagRequired("type")

	transactionCmd.AddCommand(transactionCreateCmd)
	transactionCmd.AddCommand(transactionSplitCmd)
	transactionCmd.AddCommand(transactionListCmd)
	transactionCmd.AddCommand(transactionGetCmd)
	transactionCmd.AddCommand(transactionAdvanceCmd)
	transactionCmd.AddCommand(transactionUnreconcileCmd)
	transactionCmd.AddCommand(transactionHistoryCmd)
	transactionCmd.AddCommand(transactionDeleteCmd)
	transactionCmd.AddCommand(transactionAttachCmd)

	rootCmd.AddCommand(transactionCmd)
}
