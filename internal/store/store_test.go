package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// seeded opens a store with the default chart and returns account ids by code.
func seeded(t *testing.T) (*Store, map[string]string) {
	t.Helper()
	s := openTest(t)
	accounts, err := s.SeedChart(context.Background(), owner)
	require.NoError(t, err)
	ids := make(map[string]string, len(accounts))
	for _, a := range accounts {
		ids[a.Code] = a.ID
	}
	return s, ids
}

func TestSeedChartIsIdempotent(t *testing.T) {
	s, ids := seeded(t)
	assert.Contains(t, ids, "112")

	again, err := s.SeedChart(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := s.ListAccounts(context.Background(), owner, AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(ids))
	assert.Equal(t, "1", all[0].Code)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{OwnerID: owner, Name: "Cash", Code: "111", Class: ledger.ClassAsset, IsOpen: true}))
	err := s.CreateAccount(ctx, &ledger.Account{OwnerID: owner, Name: "Cash again", Code: "111", Class: ledger.ClassAsset, IsOpen: true})
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)

	// Another owner may reuse the code.
	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{OwnerID: "other", Name: "Cash", Code: "111", Class: ledger.ClassAsset, IsOpen: true}))
}

func TestAccountsAreScopedByOwner(t *testing.T) {
	s, ids := seeded(t)
	_, err := s.GetAccount(context.Background(), "intruder", ids["112"])
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestDeleteAccountInUse(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	err := s.DeleteAccount(ctx, owner, ids["52"])
	assert.ErrorIs(t, err, ledger.ErrAccountInUse)
	require.NoError(t, s.DeleteAccount(ctx, owner, ids["53"]))
}

func TestCreateTransactionRejectsReadOnlyAccount(t *testing.T) {
	s, ids := seeded(t)
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["5"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	err := s.CreateTransaction(context.Background(), txn)
	assert.ErrorIs(t, err, ledger.ErrAccountReadOnly)
}

func TestListTransactionsHidesDrafts(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	for i, st := range []ledger.Status{ledger.StatusDraft, ledger.StatusPending, ledger.StatusCompleted} {
		txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-01").AddDate(0, 0, i), Amount: 500, Payee: "P",
			DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: st, Tags: []string{"t"}}
		require.NoError(t, s.CreateTransaction(ctx, txn))
	}

	visible, err := s.ListTransactions(ctx, owner, TxnFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	assert.Equal(t, ledger.StatusCompleted, visible[0].Status)
	assert.Equal(t, []string{"t"}, visible[0].Tags)

	all, err := s.ListTransactions(ctx, owner, TxnFilter{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	drafts, err := s.ListTransactions(ctx, owner, TxnFilter{Status: ledger.StatusDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestTransitionStatusCompareAndSet(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	got, err := s.TransitionStatus(ctx, owner, txn.ID, ledger.StatusPending, ledger.StatusCompleted, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, got.Status)

	_, err = s.TransitionStatus(ctx, owner, txn.ID, ledger.StatusPending, ledger.StatusCompleted, "bob", "")
	assert.True(t, ledger.IsStateConflict(err))

	history, err := s.History(ctx, owner, txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].ChangedBy)
	assert.Equal(t, ledger.StatusCompleted, history[0].To)
}

func TestConcurrentTransitionsOnlyOneWins(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TransitionStatus(ctx, owner, txn.ID, ledger.StatusPending, ledger.StatusCompleted, "w", ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestLockedFieldsAndDeleteGuards(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusCompleted}
	require.NoError(t, s.CreateTransaction(ctx, txn))

	edit := *txn
	edit.Amount = 2000
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &edit), ledger.ErrFieldLocked)

	edit = *txn
	edit.Notes = "fixed memo"
	require.NoError(t, s.UpdateTransaction(ctx, &edit))

	_, err := s.TransitionStatus(ctx, owner, txn.ID, ledger.StatusCompleted, ledger.StatusReconciled, "alice", "")
	require.NoError(t, err)
	err = s.DeleteTransaction(ctx, owner, txn.ID)
	assert.True(t, ledger.IsStateConflict(err))

	got, err := s.GetTransaction(ctx, owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed memo", got.Notes)
}

func TestSplitParentFollowsChildren(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	parent := &ledger.Transaction{OwnerID: owner, Date: day("2024-02-01"), Payee: "Supermarket", Status: ledger.StatusPending}
	children := []*ledger.Transaction{
		{Date: day("2024-02-01"), Amount: 3000, Payee: "Supermarket", DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending},
		{Date: day("2024-02-01"), Amount: 2000, Payee: "Supermarket", DebitAccountID: ids["55"], CreditAccountID: ids["112"], Status: ledger.StatusPending},
	}
	require.NoError(t, s.CreateSplit(ctx, parent, children))
	assert.Equal(t, int64(5000), parent.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, owner, children[1].ID))
	got, err := s.GetTransaction(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, owner, parent.ID))
	_, err = s.GetTransaction(ctx, owner, children[0].ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestNotesEditSurvivesClosedAccount(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	txn := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-02"), Amount: 1000, Payee: "Shop",
		DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusCompleted}
	require.NoError(t, s.CreateTransaction(ctx, txn))
	draft := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-03"), Amount: 500, Payee: "Shop",
		DebitAccountID: ids["55"], CreditAccountID: ids["112"], Status: ledger.StatusDraft}
	require.NoError(t, s.CreateTransaction(ctx, draft))

	acct, err := s.GetAccount(ctx, owner, ids["52"])
	require.NoError(t, err)
	acct.IsOpen = false
	require.NoError(t, s.UpdateAccount(ctx, acct))

	edit := *txn
	edit.Notes = "receipt filed"
	require.NoError(t, s.UpdateTransaction(ctx, &edit))
	got, err := s.GetTransaction(ctx, owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt filed", got.Notes)

	move := *draft
	move.DebitAccountID = ids["52"]
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &move), ledger.ErrAccountClosed)
}

func TestSplitChildEditRespectsParent(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	parent := &ledger.Transaction{OwnerID: owner, Date: day("2024-02-01"), Payee: "Supermarket", Status: ledger.StatusCompleted}
	children := []*ledger.Transaction{
		{Date: day("2024-02-01"), Amount: 3000, Payee: "Supermarket", DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending},
		{Date: day("2024-02-01"), Amount: 2000, Payee: "Supermarket", DebitAccountID: ids["55"], CreditAccountID: ids["112"], Status: ledger.StatusPending},
	}
	require.NoError(t, s.CreateSplit(ctx, parent, children))

	edit := *children[0]
	edit.Amount = 4000
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &edit), ledger.ErrFieldLocked)

	edit = *children[0]
	edit.Notes = "bread"
	require.NoError(t, s.UpdateTransaction(ctx, &edit))
	got, err := s.GetTransaction(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Amount)
}

func TestSplitChildEditRespectsParentPeriod(t *testing.T) {
	s, ids := seeded(t)
	ctx := context.Background()
	parent := &ledger.Transaction{OwnerID: owner, Date: day("2024-01-31"), Payee: "Supermarket", Status: ledger.StatusPending}
	children := []*ledger.Transaction{
		{Date: day("2024-02-01"), Amount: 3000, Payee: "Supermarket", DebitAccountID: ids["52"], CreditAccountID: ids["112"], Status: ledger.StatusPending},
	}
	require.NoError(t, s.CreateSplit(ctx, parent, children))

	p := &ledger.Period{OwnerID: owner, StartDate: day("2024-01-01"), EndDate: day("2024-01-31")}
	require.NoError(t, s.CreatePeriod(ctx, p))
	_, err := s.ClosePeriod(ctx, owner, p.ID, "alice")
	require.NoError(t, err)

	edit := *children[0]
	edit.Amount = 3500
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &edit), ledger.ErrPeriodClosed)

	got, err := s.GetTransaction(ctx, owner, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.Amount)
}
