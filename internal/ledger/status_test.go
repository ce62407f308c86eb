package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	next, err := Advance(StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, next)

	next, err = Advance(StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, next)

	next, err = Advance(StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusReconciled, next)

	_, err = Advance(StatusReconciled)
	assert.True(t, IsStateConflict(err))

	_, err = Advance("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUnreconcile(t *testing.T) {
	_, err := Unreconcile(StatusReconciled, "  ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = Unreconcile(StatusCompleted, "bank statement corrected")
	assert.True(t, IsStateConflict(err))

	back, err := Unreconcile(StatusReconciled, "bank statement corrected")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, back)
}

func TestDocumentRequirement(t *testing.T) {
	tests := []struct {
		name string
		req  DocumentRequirement
		want bool
	}{
		{"nothing required", DocumentRequirement{Required: 0, Attached: 0, Minimum: 5}, true},
		{"all required, all attached", DocumentRequirement{Required: 3, Attached: 3}, true},
		{"all required, one missing", DocumentRequirement{Required: 3, Attached: 2}, false},
		{"minimum below required", DocumentRequirement{Required: 3, Attached: 1, Minimum: 1}, true},
		{"minimum above required", DocumentRequirement{Required: 2, Attached: 2, Minimum: 5}, true},
		{"minimum not met", DocumentRequirement{Required: 3, Attached: 1, Minimum: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Satisfied())
		})
	}
}

func TestTransitionGuard(t *testing.T) {
	s := Settings{OwnerID: "o", DoubleEntryMode: true}
	txn := &Transaction{ID: "t", Status: StatusCompleted, Payee: "Acme", DebitAccountID: "a", CreditAccountID: "b"}

	assert.Nil(t, TransitionGuard(txn, StatusReconciled, s, DocumentRequirement{}))

	blocked := TransitionGuard(txn, StatusReconciled, s, DocumentRequirement{Required: 2, Attached: 1})
	require.NotNil(t, blocked)
	assert.Len(t, blocked.Unmet, 1)

	noPayee := &Transaction{ID: "u", Status: StatusDraft, DebitAccountID: "a"}
	blocked = TransitionGuard(noPayee, StatusPending, s, DocumentRequirement{})
	require.NotNil(t, blocked)
	assert.Len(t, blocked.Unmet, 1)
}

func TestShouldAutoPromote(t *testing.T) {
	on := Settings{AutoDraftToPending: true}
	assert.True(t, ShouldAutoPromote(&Transaction{Status: StatusDraft, Payee: "Acme"}, on))
	assert.True(t, ShouldAutoPromote(&Transaction{Status: StatusDraft, CustomerID: "c1"}, on))
	assert.False(t, ShouldAutoPromote(&Transaction{Status: StatusDraft}, on))
	assert.False(t, ShouldAutoPromote(&Transaction{Status: StatusPending, Payee: "Acme"}, on))
	assert.False(t, ShouldAutoPromote(&Transaction{Status: StatusDraft, Payee: "Acme"}, Settings{}))
}
