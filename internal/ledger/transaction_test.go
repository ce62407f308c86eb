package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForSettings(t *testing.T) {
	de := Settings{OwnerID: "o", DoubleEntryMode: true}
	legacy := Settings{OwnerID: "o"}

	draft := Transaction{OwnerID: "o", Date: day("2024-01-01"), Status: StatusDraft}
	assert.NoError(t, draft.ValidateFor(de), "drafts may be incomplete")

	pending := Transaction{OwnerID: "o", Date: day("2024-01-01"), Status: StatusPending, AccountID: "x"}
	assert.ErrorIs(t, pending.ValidateFor(legacy), ErrMissingPayee)

	pending.Payee = "Acme"
	assert.NoError(t, pending.ValidateFor(legacy))
	assert.ErrorIs(t, pending.ValidateFor(de), ErrMissingAccounts)

	pending.DebitAccountID, pending.CreditAccountID = "x", "y"
	assert.NoError(t, pending.ValidateFor(de))

	pending.AccountID = "z"
	assert.ErrorIs(t, pending.ValidateFor(de), ErrMixedPosting)
}

func TestValidateEditKeepsStoredPostingMode(t *testing.T) {
	de := Settings{OwnerID: "o", DoubleEntryMode: true}
	prev := &Transaction{ID: "t", OwnerID: "o", Date: day("2024-01-01"), Amount: 100,
		Payee: "Acme", AccountID: "x", Status: StatusCompleted}

	next := *prev
	next.Notes = "memo"
	assert.NoError(t, next.ValidateEdit(prev, de), "a legacy record stays editable after double-entry is switched on")

	next.Payee = ""
	assert.ErrorIs(t, next.ValidateEdit(prev, de), ErrMissingPayee)

	next = *prev
	next.AccountID = "y"
	assert.ErrorIs(t, next.ValidateEdit(prev, de), ErrMissingAccounts)

	pending := *prev
	pending.Status = StatusPending
	next = pending
	next.Notes = "memo"
	assert.ErrorIs(t, next.ValidateEdit(&pending, de), ErrMissingAccounts)
}

func TestCheckEditLocks(t *testing.T) {
	prev := &Transaction{
		ID: "t", Status: StatusCompleted, Date: day("2024-01-01"), Amount: 100,
		DebitAccountID: "a", CreditAccountID: "b", CustomerID: "c", Notes: "old",
	}

	next := *prev
	next.Notes = "new"
	next.Tags = []string{"office"}
	assert.NoError(t, CheckEdit(prev, &next), "notes and tags stay editable")

	next = *prev
	next.Amount = 200
	assert.ErrorIs(t, CheckEdit(prev, &next), ErrFieldLocked)

	next = *prev
	next.Date = day("2024-01-02")
	assert.ErrorIs(t, CheckEdit(prev, &next), ErrFieldLocked)

	next = *prev
	next.CustomerID = "d"
	assert.ErrorIs(t, CheckEdit(prev, &next), ErrFieldLocked)

	next = *prev
	next.Status = StatusReconciled
	assert.ErrorIs(t, CheckEdit(prev, &next), ErrInvalidStatus)

	pending := *prev
	pending.Status = StatusPending
	changed := pending
	changed.Amount = 999
	assert.NoError(t, CheckEdit(&pending, &changed))
}

func TestReconciledCannotBeDeleted(t *testing.T) {
	txn := Transaction{ID: "t", Status: StatusReconciled}
	assert.True(t, IsStateConflict(txn.CanDelete()))
	txn.Status = StatusCompleted
	assert.NoError(t, txn.CanDelete())
}

func TestSplitGroup(t *testing.T) {
	parent := &Transaction{ID: "p", Amount: 1}
	children := []*Transaction{{ID: "c1", Amount: 300}, {ID: "c2", Amount: 700}}

	require.NoError(t, SplitGroup("g", parent, children))
	assert.Equal(t, int64(1000), parent.Amount)
	assert.Equal(t, SplitParent, parent.SplitType)
	assert.Equal(t, "g", children[1].SplitGroupID)
	assert.Equal(t, SplitChild, children[0].SplitType)

	assert.ErrorIs(t, SplitGroup("g", parent, nil), ErrSplitChildrenRequired)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 12340, false},
		{"-0.5", -500, false},
		{"1,000", 1000000, false},
		{"0.001", 1, false},
		{"0.0001", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "12.35", FormatAmount(12345))
	assert.Equal(t, "-0.50", FormatAmount(-500))
	assert.Equal(t, "12.345", FormatExact(12345))
}
