package ledger

// BalanceTolerance is the largest absolute difference, in miliunits, still
// reported as balanced.
const BalanceTolerance = 10

// WithinTolerance reports whether diff is small enough to count as balanced.
func WithinTolerance(diff int64) bool {
	return abs(diff) < BalanceTolerance
}

// AccountBalanceSummary is the input row of a trial balance.
type AccountBalanceSummary struct {
	AccountID string       `json:"account_id"`
	Name      string       `json:"name"`
	Code      string       `json:"code,omitempty"`
	Class     AccountClass `json:"class,omitempty"`
	Balance   int64        `json:"balance"`
}

type TrialBalanceLine struct {
	AccountBalanceSummary
	Debit  int64 `json:"debit"`
	Credit int64 `json:"credit"`
}

type TrialBalance struct {
	Lines        []TrialBalanceLine `json:"lines"`
	TotalDebits  int64              `json:"total_debits"`
	TotalCredits int64              `json:"total_credits"`
	Difference   int64              `json:"difference"`
	IsBalanced   bool               `json:"is_balanced"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// ComputeTrialBalance places each balance on a side: a non-negative balance
// on its normal side, a negative one by absolute value on the opposite side.
func ComputeTrialBalance(rows []AccountBalanceSummary) TrialBalance {
	tb := TrialBalance{Lines: make([]TrialBalanceLine, 0, len(rows))}
	for _, r := range rows {
		side := Classify(r.Class, "").NormalBalance()
		amount := r.Balance
		if amount < 0 {
			side = side.Opposite()
			amount = -amount
		}
		line := TrialBalanceLine{AccountBalanceSummary: r}
		if side == Debit {
			line.Debit = amount
			tb.TotalDebits += amount
		} else {
			line.Credit = amount
			tb.TotalCredits += amount
		}
		tb.Lines = append(tb.Lines, line)
	}
	tb.Difference = tb.TotalDebits - tb.TotalCredits
	tb.IsBalanced = WithinTolerance(tb.Difference)
	return tb
}

// Summarize turns account balances into trial balance input rows.
func Summarize(balances []AccountBalance) []AccountBalanceSummary {
	out := make([]AccountBalanceSummary, 0, len(balances))
	for _, b := range balances {
		out = append(out, AccountBalanceSummary{
			AccountID: b.ID,
			Name:      b.Name,
			Code:      b.Code,
			Class:     b.Class,
			Balance:   b.Balance,
		})
	}
	return out
}
