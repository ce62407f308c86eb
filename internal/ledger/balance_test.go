package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalBalance(t *testing.T) {
	tests := []struct {
		class AccountClass
		want  Side
	}{
		{ClassAsset, Debit},
		{ClassExpense, Debit},
		{ClassLiability, Credit},
		{ClassEquity, Credit},
		{ClassIncome, Credit},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			assert.Equal(t, tt.want, NormalBalance(tt.class))
			assert.Equal(t, tt.want, Classified(tt.class).NormalBalance())
		})
	}
	assert.Equal(t, Debit, Legacy(TypeCredit).NormalBalance(), "unclassified accounts present as debit-normal")
	assert.Equal(t, Debit, Classify("", TypeNeutral).NormalBalance())
}

func TestBalanceFormula(t *testing.T) {
	assert.Equal(t, int64(3000), Balance(Debit, 5000, 2000, 0))
	assert.Equal(t, int64(-3000), Balance(Credit, 5000, 2000, 0))
	assert.Equal(t, int64(1500), Balance(Credit, 0, 500, 1000))
	assert.Equal(t, int64(-500), Balance(Debit, 0, 1500, 1000))
}

func TestDraftsExcluded(t *testing.T) {
	txns := []Transaction{
		{ID: "a", Date: day("2024-01-01"), Amount: 5000, DebitAccountID: "cash", CreditAccountID: "sales", Status: StatusCompleted},
		{ID: "b", Date: day("2024-01-02"), Amount: 9000, DebitAccountID: "cash", CreditAccountID: "sales", Status: StatusDraft},
	}
	tot := Accumulate(txns, DateRange{})
	assert.Equal(t, Totals{Debit: 5000}, tot["cash"])
	assert.Equal(t, Totals{Credit: 5000}, tot["sales"])
}

func TestLegacySingleEntry(t *testing.T) {
	pos := Transaction{ID: "p", Amount: 1200, AccountID: "x", Status: StatusPending}
	neg := Transaction{ID: "n", Amount: -300, AccountID: "x", Status: StatusPending}

	assert.Equal(t, Totals{Debit: 1200}, pos.Contribution("x"))
	assert.Equal(t, Totals{Credit: 300}, neg.Contribution("x"))
	assert.Equal(t, Totals{}, pos.Contribution("y"))
}

func TestDoubleEntryTakesPrecedence(t *testing.T) {
	txn := Transaction{
		ID: "t", Amount: 700, Status: StatusCompleted,
		AccountID: "cash", DebitAccountID: "cash", CreditAccountID: "sales",
	}
	assert.Equal(t, ModeDoubleEntry, txn.PostingMode())
	assert.Equal(t, Totals{Debit: 700}, txn.Contribution("cash"))
	assert.Equal(t, Totals{Credit: 700}, txn.Contribution("sales"))

	txn.AccountID = "other"
	assert.Equal(t, ModeMixed, txn.PostingMode())
	assert.Equal(t, Totals{}, txn.Contribution("other"))
	assert.Equal(t, []string{"t"}, MixedPostings([]Transaction{txn}))
}

func TestSameAccountBothSidesFallsBackToSingleEntry(t *testing.T) {
	txn := Transaction{
		ID: "t", Amount: -400, Status: StatusCompleted,
		AccountID: "x", DebitAccountID: "x", CreditAccountID: "x",
	}
	assert.Equal(t, Totals{Credit: 400}, txn.Contribution("x"))
}

func TestSplitParentPostsNothing(t *testing.T) {
	parent := Transaction{ID: "p", Status: StatusCompleted, DebitAccountID: "a", CreditAccountID: "b", Amount: 100, SplitType: SplitParent}
	assert.Empty(t, parent.Postings())
}

func TestRegister(t *testing.T) {
	acct := Account{ID: "cash", Class: ClassAsset, OpeningBalance: 1000}
	txns := []Transaction{
		{ID: "c", Date: day("2024-01-03"), Amount: 200, DebitAccountID: "rent", CreditAccountID: "cash", Status: StatusCompleted},
		{ID: "a", Date: day("2024-01-01"), Amount: 500, DebitAccountID: "cash", CreditAccountID: "sales", Status: StatusCompleted},
		{ID: "d", Date: day("2024-01-04"), Amount: 900, DebitAccountID: "cash", CreditAccountID: "sales", Status: StatusDraft},
		{ID: "b", Date: day("2024-01-01"), Amount: 100, DebitAccountID: "cash", CreditAccountID: "sales", Status: StatusPending},
	}

	rows := Register(acct, txns, 0)
	require.Len(t, rows, 4)

	ids := make([]string, len(rows))
	running := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.Transaction.ID
		running[i] = r.RunningBalance
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids, "newest first, ties broken by id")
	assert.Equal(t, []int64{1400, 1400, 1600, 1500}, running)
	assert.Equal(t, int64(0), rows[0].Change, "drafts do not move the balance")

	// Reordering the input does not change the result.
	reversed := []Transaction{txns[3], txns[2], txns[1], txns[0]}
	assert.Equal(t, rows, Register(acct, reversed, 0))
}

func TestDateRangeInclusive(t *testing.T) {
	r := DateRange{From: day("2024-01-01"), To: day("2024-01-31")}
	assert.True(t, r.Contains(day("2024-01-01")))
	assert.True(t, r.Contains(day("2024-01-31").Add(23*time.Hour)))
	assert.False(t, r.Contains(day("2024-02-01")))
	assert.True(t, r.Precedes(day("2023-12-31")))
	assert.True(t, DateRange{}.Contains(day("1999-05-05")))
}
