package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/simonvc/bookkeeper/internal/cache"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type fixture struct {
	eng   *Engine
	store *store.Store
	ids   map[string]string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	accounts, err := st.SeedChart(context.Background(), owner)
	require.NoError(t, err)
	ids := make(map[string]string, len(accounts))
	for _, a := range accounts {
		ids[a.Code] = a.ID
	}
	eng := New(st, opts...)
	eng.WithNow(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) })
	return &fixture{eng: eng, store: st, ids: ids}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// post creates a transaction directly in the given status.
func (f *fixture) post(t *testing.T, date string, amount int64, debit, credit string, status ledger.Status) *ledger.Transaction {
	t.Helper()
	txn := &ledger.Transaction{
		OwnerID: owner, Date: day(date), Amount: amount, Payee: "Counterparty",
		DebitAccountID: f.ids[debit], CreditAccountID: f.ids[credit], Status: status,
	}
	require.NoError(t, f.store.CreateTransaction(context.Background(), txn))
	return txn
}

func TestCreateTransactionValidatesNonDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missingPayee := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100,
		DebitAccountID: f.ids["52"], CreditAccountID: f.ids["112"], Status: ledger.StatusPending}
	assert.ErrorIs(t, f.eng.CreateTransaction(ctx, missingPayee, "alice"), ledger.ErrMissingPayee)

	draft := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100}
	require.NoError(t, f.eng.CreateTransaction(ctx, draft, "alice"))
	assert.Equal(t, ledger.StatusDraft, draft.Status)
}

func TestCreateTransactionAutoPromotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := ledger.DefaultSettings(owner)
	st.AutoDraftToPending = true
	require.NoError(t, f.store.PutSettings(ctx, st))

	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100, Payee: "Shop",
		DebitAccountID: f.ids["52"], CreditAccountID: f.ids["112"]}
	require.NoError(t, f.eng.CreateTransaction(ctx, txn, "alice"))
	assert.Equal(t, ledger.StatusPending, txn.Status)

	history, err := f.eng.History(ctx, owner, txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.StatusDraft, history[0].From)

	// Missing accounts keep it a draft in double-entry mode.
	incomplete := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100, Payee: "Shop"}
	require.NoError(t, f.eng.CreateTransaction(ctx, incomplete, "alice"))
	assert.Equal(t, ledger.StatusDraft, incomplete.Status)

	incomplete.DebitAccountID = f.ids["52"]
	incomplete.CreditAccountID = f.ids["112"]
	require.NoError(t, f.eng.UpdateTransaction(ctx, incomplete, "alice"))
	got, err := f.eng.GetTransaction(ctx, owner, incomplete.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, got.Status)
}

func TestUpdateNotesOnSettledTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Stored before double-entry mode was switched on.
	legacy := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100, Payee: "Shop",
		AccountID: f.ids["112"], Status: ledger.StatusCompleted}
	require.NoError(t, f.store.CreateTransaction(ctx, legacy))
	posted := f.post(t, "2024-01-06", 200, "52", "112", ledger.StatusCompleted)

	acct, err := f.store.GetAccount(ctx, owner, f.ids["52"])
	require.NoError(t, err)
	acct.IsOpen = false
	require.NoError(t, f.store.UpdateAccount(ctx, acct))

	for _, txn := range []*ledger.Transaction{legacy, posted} {
		edit := *txn
		edit.Status = ""
		edit.Notes = "checked"
		require.NoError(t, f.eng.UpdateTransaction(ctx, &edit, "alice"))
		got, err := f.eng.GetTransaction(ctx, owner, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "checked", got.Notes)
		assert.Equal(t, ledger.StatusCompleted, got.Status)
	}

	edit := *legacy
	edit.AccountID = f.ids["113"]
	assert.ErrorIs(t, f.eng.UpdateTransaction(ctx, &edit, "alice"), ledger.ErrMissingAccounts)
}

func TestAdvanceWalksTheStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.post(t, "2024-01-05", 100, "52", "112", ledger.StatusDraft)

	for _, want := range []ledger.Status{ledger.StatusPending, ledger.StatusCompleted, ledger.StatusReconciled} {
		res, err := f.eng.Advance(ctx, owner, txn.ID, "", "alice", "")
		require.NoError(t, err)
		require.Nil(t, res.Blocked)
		assert.Equal(t, want, res.Transaction.Status)
	}

	_, err := f.eng.Advance(ctx, owner, txn.ID, "", "alice", "")
	assert.True(t, ledger.IsStateConflict(err))

	_, err = f.eng.Unreconcile(ctx, owner, txn.ID, "alice", " ")
	assert.ErrorIs(t, err, ledger.ErrReasonRequired)
	back, err := f.eng.Unreconcile(ctx, owner, txn.ID, "alice", "bank statement corrected")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, back.Status)

	history, err := f.eng.History(ctx, owner, txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "bank statement corrected", history[3].Notes)
}

func TestAdvanceExpectedStatusMismatch(t *testing.T) {
	f := newFixture(t)
	txn := f.post(t, "2024-01-05", 100, "52", "112", ledger.StatusPending)
	_, err := f.eng.Advance(context.Background(), owner, txn.ID, ledger.StatusDraft, "alice", "")
	assert.True(t, ledger.IsStateConflict(err))
}

func TestAdvanceBlockedByGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-05"), Amount: 100, DebitAccountID: f.ids["52"], Status: ledger.StatusDraft}
	require.NoError(t, f.store.CreateTransaction(ctx, draft))
	res, err := f.eng.Advance(ctx, owner, draft.ID, "", "alice", "")
	require.NoError(t, err)
	require.NotNil(t, res.Blocked)
	assert.Len(t, res.Blocked.Unmet, 1)
	assert.Equal(t, ledger.StatusDraft, res.Transaction.Status)

	receipt := &ledger.DocumentType{OwnerID: owner, Name: "Receipt", IsRequired: true}
	require.NoError(t, f.store.CreateDocumentType(ctx, receipt))
	done := f.post(t, "2024-01-06", 100, "52", "112", ledger.StatusCompleted)

	res, err = f.eng.Advance(ctx, owner, done.ID, "", "alice", "")
	require.NoError(t, err)
	require.NotNil(t, res.Blocked)
	assert.Contains(t, res.Blocked.Unmet[0], "0 of 1")

	require.NoError(t, f.store.AttachDocument(ctx, &ledger.Document{OwnerID: owner, TransactionID: done.ID, DocumentTypeID: receipt.ID}))
	res, err = f.eng.Advance(ctx, owner, done.ID, "", "alice", "")
	require.NoError(t, err)
	assert.Nil(t, res.Blocked)
	assert.Equal(t, ledger.StatusReconciled, res.Transaction.Status)
}

func TestReportsUseCacheUntilWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := cache.New(client, time.Minute)

	f := newFixture(t, WithCache(c))
	f.store.OnChange(func(ctx context.Context, ownerID string) { c.Bump(ctx, ownerID) })
	ctx := context.Background()

	f.post(t, "2024-01-01", 50000, "112", "31", ledger.StatusCompleted)
	bs, err := f.eng.BalanceSheet(ctx, owner, ledger.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), bs.Totals.Assets)
	assert.True(t, bs.IsBalanced)

	f.post(t, "2024-01-02", 10000, "112", "41", ledger.StatusCompleted)
	bs, err = f.eng.BalanceSheet(ctx, owner, ledger.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(60000), bs.Totals.Assets)
	assert.Equal(t, int64(10000), bs.Totals.UnclosedEarnings)
	assert.False(t, bs.IsBalanced)

	tb, err := f.eng.TrialBalance(ctx, owner, ledger.DateRange{})
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.Equal(t, int64(60000), tb.TotalDebits)
}

func TestAccountLedgerListsDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, "2024-01-01", 5000, "112", "31", ledger.StatusCompleted)
	f.post(t, "2024-01-02", 700, "52", "112", ledger.StatusDraft)

	l, err := f.eng.AccountLedger(ctx, owner, f.ids["112"], ledger.DateRange{})
	require.NoError(t, err)
	require.Len(t, l.Entries, 2)
	assert.Equal(t, int64(0), l.Entries[0].Change)
	assert.Equal(t, int64(5000), l.ClosingBalance)
}
