package ledger

import "time"

type IncomeStatement struct {
	Range           DateRange     `json:"range"`
	IncomeAccounts  []AccountNode `json:"income_accounts"`
	ExpenseAccounts []AccountNode `json:"expense_accounts"`
	TotalIncome     int64         `json:"total_income"`
	TotalExpenses   int64         `json:"total_expenses"`
	NetIncome       int64         `json:"net_income"`
	Warnings        []string      `json:"warnings,omitempty"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

type BalanceSheetTotals struct {
	Assets               int64 `json:"assets"`
	Liabilities          int64 `json:"liabilities"`
	Equity               int64 `json:"equity"`
	LiabilitiesAndEquity int64 `json:"liabilities_and_equity"`
	// UnclosedEarnings is the income less expenses not yet closed into
	// equity. While it is non-zero the sheet cannot balance.
	UnclosedEarnings int64 `json:"unclosed_earnings"`
}

type BalanceSheet struct {
	Range             DateRange          `json:"range"`
	AssetAccounts     []AccountNode      `json:"asset_accounts"`
	LiabilityAccounts []AccountNode      `json:"liability_accounts"`
	EquityAccounts    []AccountNode      `json:"equity_accounts"`
	Totals            BalanceSheetTotals `json:"totals"`
	IsBalanced        bool               `json:"is_balanced"`
	Difference        int64              `json:"difference"`
	Warnings          []string           `json:"warnings,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

type AccountLedger struct {
	Account        Account         `json:"account"`
	Range          DateRange       `json:"range"`
	OpeningBalance int64           `json:"opening_balance"`
	ClosingBalance int64           `json:"closing_balance"`
	Entries        []RegisterEntry `json:"entries"`
}

func byClass(balances []AccountBalance, class AccountClass) []AccountBalance {
	var out []AccountBalance
	for _, b := range balances {
		if b.Class == class {
			out = append(out, b)
		}
	}
	return out
}

func section(balances []AccountBalance, class AccountClass) ([]AccountNode, int64) {
	f := Aggregate(byClass(balances, class))
	tree := f.Tree()
	for _, u := range f.Uncoded {
		tree = append(tree, AccountNode{AccountBalance: u})
	}
	if tree == nil {
		tree = []AccountNode{}
	}
	return tree, f.Total()
}

func mixedWarnings(txns []Transaction) []string {
	var out []string
	for _, id := range MixedPostings(txns) {
		out = append(out, "transaction "+id+" has a legacy account that matches neither side; double-entry fields used")
	}
	return out
}

// withoutClosing drops closing entries, which would zero every income and
// expense account of a closed period.
func withoutClosing(txns []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.ClosingPeriodID == "" {
			out = append(out, t)
		}
	}
	return out
}

// BuildIncomeStatement reports income and expense activity inside the range.
// Opening balances are not period activity and are left out.
func BuildIncomeStatement(accounts []Account, txns []Transaction, r DateRange) IncomeStatement {
	balances := Balances(accounts, withoutClosing(txns), r, false)
	is := IncomeStatement{Range: r, Warnings: mixedWarnings(txns)}
	is.IncomeAccounts, is.TotalIncome = section(balances, ClassIncome)
	is.ExpenseAccounts, is.TotalExpenses = section(balances, ClassExpense)
	is.NetIncome = is.TotalIncome - is.TotalExpenses
	return is
}

// BuildBalanceSheet reports asset, liability and equity balances including
// opening balances. The check is Assets - (Liabilities + Equity).
func BuildBalanceSheet(accounts []Account, txns []Transaction, r DateRange) BalanceSheet {
	balances := Balances(accounts, txns, r, true)
	bs := BalanceSheet{Range: r, Warnings: mixedWarnings(txns)}
	bs.AssetAccounts, bs.Totals.Assets = section(balances, ClassAsset)
	bs.LiabilityAccounts, bs.Totals.Liabilities = section(balances, ClassLiability)
	bs.EquityAccounts, bs.Totals.Equity = section(balances, ClassEquity)
	bs.Totals.LiabilitiesAndEquity = bs.Totals.Liabilities + bs.Totals.Equity

	_, income := section(balances, ClassIncome)
	_, expenses := section(balances, ClassExpense)
	bs.Totals.UnclosedEarnings = income - expenses

	bs.Difference = bs.Totals.Assets - bs.Totals.LiabilitiesAndEquity
	bs.IsBalanced = WithinTolerance(bs.Difference)
	if !bs.IsBalanced && bs.Difference == bs.Totals.UnclosedEarnings {
		bs.Warnings = append(bs.Warnings, "difference equals unclosed earnings; close the period to balance")
	}
	return bs
}

// BuildTrialBalance runs the trial balance over posting accounts. Read-only
// accounts hold no postings of their own and would double count their
// children.
func BuildTrialBalance(accounts []Account, txns []Transaction, r DateRange) TrialBalance {
	var posting []Account
	for _, a := range accounts {
		if !a.IsReadOnly {
			posting = append(posting, a)
		}
	}
	tb := ComputeTrialBalance(Summarize(Balances(posting, txns, r, true)))
	tb.Warnings = mixedWarnings(txns)
	return tb
}

// BuildAccountLedger returns the register of one account for the range.
// Activity before the start of the range is carried into the opening figure.
func BuildAccountLedger(acct Account, txns []Transaction, r DateRange) AccountLedger {
	var carried Totals
	var inRange []Transaction
	for i := range txns {
		t := &txns[i]
		switch {
		case r.Precedes(t.Date):
			carried.Merge(t.Contribution(acct.ID))
		case r.Contains(t.Date):
			inRange = append(inRange, *t)
		}
	}
	normal := acct.NormalBalance()
	carriedBalance := Balance(normal, carried.Debit, carried.Credit, 0)

	l := AccountLedger{
		Account:        acct,
		Range:          r,
		OpeningBalance: acct.OpeningBalance + carriedBalance,
		Entries:        Register(acct, inRange, carriedBalance),
	}
	l.ClosingBalance = l.OpeningBalance
	if len(l.Entries) > 0 {
		l.ClosingBalance = l.Entries[0].RunningBalance
	}
	if l.Entries == nil {
		l.Entries = []RegisterEntry{}
	}
	return l
}
