package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrialBalanceSides(t *testing.T) {
	tb := ComputeTrialBalance([]AccountBalanceSummary{
		{AccountID: "cash", Class: ClassAsset, Balance: 100},
		{AccountID: "loan", Class: ClassLiability, Balance: 100},
	})
	assert.Equal(t, int64(100), tb.TotalDebits)
	assert.Equal(t, int64(100), tb.TotalCredits)
	assert.Equal(t, int64(0), tb.Difference)
	assert.True(t, tb.IsBalanced)
}

func TestTrialBalanceNegativeGoesOpposite(t *testing.T) {
	tb := ComputeTrialBalance([]AccountBalanceSummary{
		{AccountID: "bank", Class: ClassAsset, Balance: -250},
		{AccountID: "fees", Class: ClassIncome, Balance: -250},
	})
	assert.Equal(t, int64(250), tb.Lines[0].Credit)
	assert.Equal(t, int64(250), tb.Lines[1].Debit)
	assert.True(t, tb.IsBalanced)
}

// A negative liability balance is a debit-side balance, so a signed pair
// that nets to zero does not balance.
func TestTrialBalanceNegativeLiability(t *testing.T) {
	tb := ComputeTrialBalance([]AccountBalanceSummary{
		{AccountID: "cash", Class: ClassAsset, Balance: 100},
		{AccountID: "loan", Class: ClassLiability, Balance: -100},
	})
	assert.Equal(t, int64(200), tb.TotalDebits)
	assert.Equal(t, int64(0), tb.TotalCredits)
	assert.Equal(t, int64(200), tb.Difference)
	assert.False(t, tb.IsBalanced)
	assert.Equal(t, int64(100), tb.Lines[1].Debit)
}

func TestTrialBalanceTolerance(t *testing.T) {
	tests := []struct {
		name     string
		diff     int64
		balanced bool
	}{
		{"exact", 0, true},
		{"nine", 9, true},
		{"ten", 10, false},
		{"minus nine", -9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []AccountBalanceSummary{
				{AccountID: "a", Class: ClassAsset, Balance: 1000 + tt.diff},
				{AccountID: "b", Class: ClassEquity, Balance: 1000},
			}
			tb := ComputeTrialBalance(rows)
			assert.Equal(t, tt.diff, tb.Difference)
			assert.Equal(t, tt.balanced, tb.IsBalanced)
		})
	}
}

func TestTrialBalanceUnclassifiedIsDebitNormal(t *testing.T) {
	tb := ComputeTrialBalance([]AccountBalanceSummary{{AccountID: "legacy", Balance: 40}})
	assert.Equal(t, int64(40), tb.TotalDebits)
	assert.False(t, tb.IsBalanced)
}
