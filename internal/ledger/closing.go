package ledger

import (
	"fmt"
	"time"
)

// ClosingLine is the period activity of one income or expense account.
type ClosingLine struct {
	AccountID string       `json:"account_id"`
	Name      string       `json:"name"`
	Code      string       `json:"code,omitempty"`
	Class     AccountClass `json:"class"`
	Debit     int64        `json:"debit"`
	Credit    int64        `json:"credit"`
	Balance   int64        `json:"balance"`
}

type ClosingPreview struct {
	Range         DateRange     `json:"range"`
	Income        []ClosingLine `json:"income"`
	Expenses      []ClosingLine `json:"expenses"`
	TotalIncome   int64         `json:"total_income"`
	TotalExpenses int64         `json:"total_expenses"`
	NetResult     int64         `json:"net_result"`
}

func (p *ClosingPreview) HasActivity() bool {
	return len(p.Income)+len(p.Expenses) > 0
}

// PreviewClosing totals income and expense activity inside the range.
// Expenses are reported as positive figures and the net result is income
// less expenses.
func PreviewClosing(accounts []Account, txns []Transaction, r DateRange) ClosingPreview {
	var posting []Account
	for _, a := range accounts {
		if !a.IsReadOnly && (a.Class == ClassIncome || a.Class == ClassExpense) {
			posting = append(posting, a)
		}
	}
	p := ClosingPreview{Range: r, Income: []ClosingLine{}, Expenses: []ClosingLine{}}
	for _, b := range Balances(posting, txns, r, false) {
		if b.Debit == 0 && b.Credit == 0 {
			continue
		}
		line := ClosingLine{
			AccountID: b.ID,
			Name:      b.Name,
			Code:      b.Code,
			Class:     b.Class,
			Debit:     b.Debit,
			Credit:    b.Credit,
			Balance:   b.Balance,
		}
		if b.Class == ClassIncome {
			p.Income = append(p.Income, line)
			p.TotalIncome += b.Balance
		} else {
			p.Expenses = append(p.Expenses, line)
			p.TotalExpenses += b.Balance
		}
	}
	p.NetResult = p.TotalIncome - p.TotalExpenses
	return p
}

// ClosingRequest names the targets and shape of the closing entries.
type ClosingRequest struct {
	PeriodID                  string    `json:"period_id"`
	ProfitLossAccountID       string    `json:"profit_loss_account_id"`
	RetainedEarningsAccountID string    `json:"retained_earnings_account_id,omitempty"`
	Date                      time.Time `json:"date"`
	Status                    Status    `json:"status"`
}

// ValidateClosingTargets checks the P&L and retained earnings accounts.
// retained may be nil.
func ValidateClosingTargets(pl, retained *Account) error {
	for _, a := range []*Account{pl, retained} {
		if a == nil {
			continue
		}
		if a.IsReadOnly {
			return Invalid(ErrClosingAccount, "%s is read-only", a.ID)
		}
		if a.Class == ClassIncome || a.Class == ClassExpense {
			return Invalid(ErrClosingAccount, "%s is itself an %s account", a.ID, a.Class)
		}
	}
	return nil
}

// BuildClosingEntries creates one journal entry per account that moves its
// period balance into the P&L account, then one entry sweeping the net
// result into retained earnings when that account is given and distinct.
func BuildClosingEntries(ownerID string, preview ClosingPreview, req ClosingRequest) []Transaction {
	status := req.Status
	if status == "" {
		status = StatusCompleted
	}
	entry := func(debit, credit string, amount int64, notes string) Transaction {
		return Transaction{
			OwnerID:         ownerID,
			Date:            req.Date,
			Amount:          amount,
			Payee:           "Period closing",
			Notes:           notes,
			DebitAccountID:  debit,
			CreditAccountID: credit,
			Status:          status,
			ClosingPeriodID: req.PeriodID,
			Tags:            []string{"closing"},
		}
	}

	var out []Transaction
	lines := append(append([]ClosingLine{}, preview.Income...), preview.Expenses...)
	for _, l := range lines {
		if l.Balance == 0 {
			continue
		}
		// Post the balance on the side opposite to the account's normal
		// side, which brings it to zero.
		zeroSide := NormalBalance(l.Class).Opposite()
		if l.Balance < 0 {
			zeroSide = zeroSide.Opposite()
		}
		notes := fmt.Sprintf("Close %s into profit and loss", l.Name)
		if zeroSide == Debit {
			out = append(out, entry(l.AccountID, req.ProfitLossAccountID, abs(l.Balance), notes))
		} else {
			out = append(out, entry(req.ProfitLossAccountID, l.AccountID, abs(l.Balance), notes))
		}
	}

	re := req.RetainedEarningsAccountID
	if re != "" && re != req.ProfitLossAccountID && preview.NetResult != 0 {
		notes := "Transfer net result to retained earnings"
		if preview.NetResult > 0 {
			out = append(out, entry(req.ProfitLossAccountID, re, preview.NetResult, notes))
		} else {
			out = append(out, entry(re, req.ProfitLossAccountID, -preview.NetResult, notes))
		}
	}
	return out
}
