package engine

import (
	"context"
	"testing"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosingWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, "2024-01-01", 500000, "112", "31", ledger.StatusCompleted)
	f.post(t, "2024-01-10", 100000, "113", "41", ledger.StatusCompleted)
	f.post(t, "2024-01-15", 40000, "52", "112", ledger.StatusCompleted)
	f.post(t, "2024-01-20", 9999, "53", "112", ledger.StatusDraft)
	f.post(t, "2024-02-01", 7000, "52", "112", ledger.StatusCompleted)

	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, f.eng.OpenPeriod(ctx, p))

	state, err := f.eng.ClosingState(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StepPreview, state.Step)

	req := ledger.ClosingRequest{
		PeriodID:                  p.ID,
		ProfitLossAccountID:       f.ids["33"],
		RetainedEarningsAccountID: f.ids["32"],
	}
	preview, err := f.eng.PreviewClosing(ctx, owner, ledger.DateRange{}, req)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), preview.TotalIncome)
	assert.Equal(t, int64(40000), preview.TotalExpenses)
	assert.Equal(t, int64(60000), preview.NetResult)

	entries, err := f.eng.CreateClosingEntries(ctx, owner, req)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, day("2024-01-31"), e.Date)
		assert.Equal(t, ledger.StatusCompleted, e.Status)
	}

	_, err = f.eng.CreateClosingEntries(ctx, owner, req)
	assert.ErrorIs(t, err, ledger.ErrClosingExists)

	state, err = f.eng.ClosingState(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StepLock, state.Step)

	locked, err := f.eng.LockPeriod(ctx, owner, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, locked.Status)

	state, err = f.eng.ClosingState(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StepDone, state.Step)

	_, err = f.eng.LockPeriod(ctx, owner, p.ID, "alice")
	assert.True(t, ledger.IsStateConflict(err))

	// After closing, January earnings sit in retained earnings and the
	// balance sheet balances up to the end of the period.
	bs, err := f.eng.BalanceSheet(ctx, owner, ledger.DateRange{To: day("2024-01-31")})
	require.NoError(t, err)
	assert.True(t, bs.IsBalanced)
	assert.Equal(t, int64(0), bs.Totals.UnclosedEarnings)

	// The income statement still reports the period's activity.
	is, err := f.eng.IncomeStatement(ctx, owner, p.Range())
	require.NoError(t, err)
	assert.Equal(t, int64(60000), is.NetIncome)

	late := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-31"), Amount: 1, Payee: "Late",
		DebitAccountID: f.ids["52"], CreditAccountID: f.ids["112"], Status: ledger.StatusPending}
	assert.ErrorIs(t, f.eng.CreateTransaction(ctx, late, "alice"), ledger.ErrPeriodClosed)
}

func TestCreateClosingEntriesWithoutActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, "2024-01-01", 500000, "112", "31", ledger.StatusCompleted)

	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, f.eng.OpenPeriod(ctx, p))

	_, err := f.eng.CreateClosingEntries(ctx, owner, ledger.ClosingRequest{PeriodID: p.ID, ProfitLossAccountID: f.ids["33"]})
	assert.ErrorIs(t, err, ledger.ErrNoClosingActivity)

	// The period stays open and can be deleted.
	require.NoError(t, f.eng.DeletePeriod(ctx, owner, p.ID))
}

func TestPreviewClosingNeedsTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := ledger.DateRange{From: day("2024-01-01"), To: day("2024-01-31")}

	_, err := f.eng.PreviewClosing(ctx, owner, r, ledger.ClosingRequest{ProfitLossAccountID: "missing"})
	assert.ErrorIs(t, err, ledger.ErrClosingAccount)
	assert.True(t, ledger.IsValidation(err))

	_, err = f.eng.PreviewClosing(ctx, owner, r, ledger.ClosingRequest{ProfitLossAccountID: f.ids["41"]})
	assert.ErrorIs(t, err, ledger.ErrClosingAccount)

	// Another owner's account does not count.
	other, err := f.store.SeedChart(ctx, "someone-else")
	require.NoError(t, err)
	_, err = f.eng.PreviewClosing(ctx, owner, r, ledger.ClosingRequest{ProfitLossAccountID: other[0].ID})
	assert.ErrorIs(t, err, ledger.ErrClosingAccount)
}

func TestOpenPeriodOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.eng.OpenPeriod(ctx, &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}))
	err := f.eng.OpenPeriod(ctx, &ledger.Period{OwnerID: owner, StartDate: day("2024-01-15"), EndDate: day("2024-02-15")})
	assert.ErrorIs(t, err, ledger.ErrPeriodOverlap)
}

func TestClosingSideRestrictedAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for code, typ := range map[string]ledger.AccountType{"41": ledger.TypeCredit, "52": ledger.TypeDebit} {
		acct, err := f.store.GetAccount(ctx, owner, f.ids[code])
		require.NoError(t, err)
		acct.Type = typ
		require.NoError(t, f.store.UpdateAccount(ctx, acct))
	}
	f.post(t, "2024-01-10", 100000, "113", "41", ledger.StatusCompleted)
	f.post(t, "2024-01-15", 40000, "52", "112", ledger.StatusCompleted)

	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, f.eng.OpenPeriod(ctx, p))
	req := ledger.ClosingRequest{PeriodID: p.ID, ProfitLossAccountID: f.ids["33"]}

	preview, err := f.eng.PreviewClosing(ctx, owner, p.Range(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), preview.NetResult)

	entries, err := f.eng.CreateClosingEntries(ctx, owner, req)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	_, err = f.eng.LockPeriod(ctx, owner, p.ID, "alice")
	require.NoError(t, err)

	for _, code := range []string{"41", "52"} {
		l, err := f.eng.AccountLedger(ctx, owner, f.ids[code], p.Range())
		require.NoError(t, err)
		assert.Equal(t, int64(0), l.ClosingBalance, code)
	}

	// Ordinary postings still respect the side restriction.
	wrong := &ledger.Transaction{OwnerID: owner, Date: day("2024-02-01"), Amount: 10, Payee: "Refund",
		DebitAccountID: f.ids["41"], CreditAccountID: f.ids["112"], Status: ledger.StatusPending}
	assert.ErrorIs(t, f.eng.CreateTransaction(ctx, wrong, "alice"), ledger.ErrSideNotAllowed)
}
