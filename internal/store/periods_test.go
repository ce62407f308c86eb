package store

import (
	"context"
	"errors"
	"testing"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePeriodRejectsOverlap(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	q1 := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-03-31")}
	require.NoError(t, s.CreatePeriod(ctx, q1))

	// Sharing a single day counts as an overlap.
	err := s.CreatePeriod(ctx, &ledger.Period{OwnerID: owner, StartDate: day("2024-03-31"), EndDate: day("2024-06-30")})
	require.ErrorIs(t, err, ledger.ErrPeriodOverlap)
	var verr *ledger.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Conflicts, 1)
	assert.Equal(t, q1.ID, verr.Conflicts[0].ID)

	require.NoError(t, s.CreatePeriod(ctx, &ledger.Period{OwnerID: owner, StartDate: day("2024-04-01"), EndDate: day("2024-06-30")}))
	require.NoError(t, s.CreatePeriod(ctx, &ledger.Period{OwnerID: "other", StartDate: day("2024-02-01"), EndDate: day("2024-02-29")}))

	periods, err := s.ListPeriods(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestCreatePeriodRejectsInvertedRange(t *testing.T) {
	s := openTest(t)
	err := s.CreatePeriod(context.Background(), &ledger.Period{OwnerID: owner, StartDate: day("2024-02-01"), EndDate: day("2024-01-01")})
	assert.ErrorIs(t, err, ledger.ErrInvalidPeriodRange)
}

func TestClosedPeriodBlocksWrites(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-15"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, s.CreatePeriod(ctx, p))
	closed, err := s.ClosePeriod(ctx, owner, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, "alice", closed.ClosedBy)

	late := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-31"), Amount: 10, Payee: "Late",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	assert.ErrorIs(t, s.CreateTransaction(ctx, late), ledger.ErrPeriodClosed)

	edit := *txn
	edit.Notes = "changed"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &edit), ledger.ErrPeriodClosed)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, owner, txn.ID), ledger.ErrPeriodClosed)
	_, err = s.TransitionStatus(ctx, owner, txn.ID, ledger.StatusPending, ledger.StatusCompleted, "alice", "")
	assert.ErrorIs(t, err, ledger.ErrPeriodClosed)

	// Moving an open-period transaction into the closed range is also refused.
	feb := &ledger.Transaction{OwnerID: owner, Date: day("2024-02-02"), Amount: 10, Payee: "Feb",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	require.NoError(t, s.CreateTransaction(ctx, feb))
	move := *feb
	move.Date = day("2024-01-20")
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &move), ledger.ErrPeriodClosed)

	assert.True(t, ledger.IsStateConflict(s.DeletePeriod(ctx, owner, p.ID)))

	reopened, err := s.ReopenPeriod(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Nil(t, reopened.ClosedAt)
	assert.Empty(t, reopened.ClosedBy)
	require.NoError(t, s.CreateTransaction(ctx, late))
}

func TestClosePeriodTwiceConflicts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, s.CreatePeriod(ctx, p))
	_, err := s.ClosePeriod(ctx, owner, p.ID, "a")
	require.NoError(t, err)
	_, err = s.ClosePeriod(ctx, owner, p.ID, "b")
	assert.True(t, ledger.IsStateConflict(err))
}

func TestCreateClosingEntriesOnce(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, s.CreatePeriod(ctx, p))

	entries := []ledger.Transaction{{
		Date: day("2024-01-31"), Amount: 5000, Payee: "Period closing",
		DebitAccountID: ids["41"], CreditAccountID: ids["33"], Status: ledger.StatusCompleted,
	}}
	created, err := s.CreateClosingEntries(ctx, owner, p.ID, entries)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, p.ID, created[0].ClosingPeriodID)

	_, err = s.CreateClosingEntries(ctx, owner, p.ID, []ledger.Transaction{{
		Date: day("2024-01-31"), Amount: 1, Payee: "Period closing",
		DebitAccountID: ids["41"], CreditAccountID: ids["33"], Status: ledger.StatusCompleted,
	}})
	assert.ErrorIs(t, err, ledger.ErrClosingExists)

	stored, err := s.ClosingEntries(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSettingsDefaultsAndDocuments(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()

	st, err := s.GetSettings(ctx, owner)
	require.NoError(t, err)
	assert.True(t, st.DoubleEntryMode)
	assert.Empty(t, st.RequiredDocumentTypeIDs)

	receipt := &ledger.DocumentType{OwnerID: owner, Name: "Receipt", IsRequired: true}
	invoice := &ledger.DocumentType{OwnerID: owner, Name: "Invoice", IsRequired: true}
	require.NoError(t, s.CreateDocumentType(ctx, receipt))
	require.NoError(t, s.CreateDocumentType(ctx, invoice))

	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusCompleted}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	require.NoError(t, s.AttachDocument(ctx, &ledger.Document{OwnerID: owner, TransactionID: txn.ID, DocumentTypeID: receipt.ID, Name: "r.pdf"}))
	require.NoError(t, s.AttachDocument(ctx, &ledger.Document{OwnerID: owner, TransactionID: txn.ID, DocumentTypeID: receipt.ID, Name: "r2.pdf"}))

	req, err := s.DocumentRequirement(ctx, owner, txn.ID, st)
	require.NoError(t, err)
	assert.Equal(t, 2, req.Required)
	assert.Equal(t, 1, req.Attached)
	assert.False(t, req.Satisfied())

	st.MinRequiredDocuments = 1
	st.AutoDraftToPending = true
	require.NoError(t, s.PutSettings(ctx, st))
	got, err := s.GetSettings(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MinRequiredDocuments)
	assert.True(t, got.AutoDraftToPending)

	req, err = s.DocumentRequirement(ctx, owner, txn.ID, got)
	require.NoError(t, err)
	assert.True(t, req.Satisfied())

	err = s.AttachDocument(ctx, &ledger.Document{OwnerID: owner, TransactionID: txn.ID, DocumentTypeID: "missing"})
	assert.ErrorIs(t, err, ledger.ErrDocumentTypeNotFound)
}
