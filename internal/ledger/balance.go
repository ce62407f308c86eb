package ledger

import (
	"slices"
	"strings"
	"time"
)

// Totals accumulates the debit and credit sides posted to one account.
type Totals struct {
	Debit  int64 `json:"debit_total"`
	Credit int64 `json:"credit_total"`
}

func (t *Totals) Add(p Posting) {
	if p.Side == Debit {
		t.Debit += p.Amount
	} else {
		t.Credit += p.Amount
	}
}

func (t *Totals) Merge(o Totals) {
	t.Debit += o.Debit
	t.Credit += o.Credit
}

// Balance applies the normal-balance formula.
func Balance(normal Side, debitTotal, creditTotal, opening int64) int64 {
	if normal == Debit {
		return opening + debitTotal - creditTotal
	}
	return opening + creditTotal - debitTotal
}

// DateRange is inclusive on both ends at day granularity. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	if !r.From.IsZero() && d.Before(Day(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(Day(r.To)) {
		return false
	}
	return true
}

// Precedes reports whether t falls before the start of the range.
func (r DateRange) Precedes(t time.Time) bool {
	return !r.From.IsZero() && Day(t).Before(Day(r.From))
}

// Accumulate sums postings per account across the transactions inside the
// range. Drafts and split parents are skipped.
func Accumulate(txns []Transaction, r DateRange) map[string]Totals {
	out := make(map[string]Totals)
	for i := range txns {
		if !r.Contains(txns[i].Date) {
			continue
		}
		for _, p := range txns[i].Postings() {
			tot := out[p.AccountID]
			tot.Add(p)
			out[p.AccountID] = tot
		}
	}
	return out
}

// AccountBalance is an account with its totals and derived balance.
type AccountBalance struct {
	Account
	Totals
	Balance int64 `json:"balance"`
}

// Balances derives the balance of every account. When withOpening is false
// the opening balance is left out, which gives period activity.
func Balances(accounts []Account, txns []Transaction, r DateRange, withOpening bool) []AccountBalance {
	totals := Accumulate(txns, r)
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		tot := totals[a.ID]
		var opening int64
		if withOpening {
			opening = a.OpeningBalance
		}
		out = append(out, AccountBalance{
			Account: a,
			Totals:  tot,
			Balance: Balance(a.NormalBalance(), tot.Debit, tot.Credit, opening),
		})
	}
	return out
}

// MixedPostings returns the IDs of transactions whose legacy account field
// disagrees with their double-entry fields.
func MixedPostings(txns []Transaction) []string {
	var ids []string
	for i := range txns {
		if txns[i].PostingMode() == ModeMixed {
			ids = append(ids, txns[i].ID)
		}
	}
	return ids
}

// RegisterEntry is one row of an account register.
type RegisterEntry struct {
	Transaction    Transaction `json:"transaction"`
	Debit          int64       `json:"debit"`
	Credit         int64       `json:"credit"`
	Change         int64       `json:"change"`
	RunningBalance int64       `json:"running_balance"`
}

// SortChronological orders transactions oldest first, breaking date ties by ID
// so the order does not depend on the input order.
func SortChronological(txns []Transaction) {
	slices.SortStableFunc(txns, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Register builds the running ledger of an account. Transactions are applied
// oldest first starting from opening+carried and returned newest first.
// Drafts are listed but leave the running balance unchanged.
func Register(acct Account, txns []Transaction, carried int64) []RegisterEntry {
	var mine []Transaction
	for i := range txns {
		if txns[i].Touches(acct.ID) {
			mine = append(mine, txns[i])
		}
	}
	SortChronological(mine)

	normal := acct.NormalBalance()
	running := acct.OpeningBalance + carried
	rows := make([]RegisterEntry, len(mine))
	for i, t := range mine {
		tot := t.Contribution(acct.ID)
		change := Balance(normal, tot.Debit, tot.Credit, 0)
		running += change
		rows[len(mine)-1-i] = RegisterEntry{
			Transaction:    t,
			Debit:          tot.Debit,
			Credit:         tot.Credit,
			Change:         change,
			RunningBalance: running,
		}
	}
	return rows
}
