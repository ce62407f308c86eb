package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/simonvc/bookkeeper/internal/engine"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/server"
	"github.com/simonvc/bookkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := server.New(st, engine.New(st), server.Options{Logger: zerolog.Nop()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, "owner-1").WithActor("bob")
}

func date(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	accounts, err := c.SeedChart(ctx)
	require.NoError(t, err)
	ids := map[string]string{}
	for _, a := range accounts {
		ids[a.Code] = a.ID
	}

	txn, err := c.CreateTransaction(ctx, &ledger.Transaction{
		Date: date("2024-03-01"), Amount: 12500, Payee: "Client Co",
		DebitAccountID: ids["113"], CreditAccountID: ids["42"], Status: ledger.StatusPending,
		Tags: []string{"consulting"},
	})
	require.NoError(t, err)
	assert.Equal(t, "owner-1", txn.OwnerID)
	assert.Equal(t, []string{"consulting"}, txn.Tags)

	res, err := c.Advance(ctx, txn.ID, ledger.StatusPending, "")
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, ledger.StatusCompleted, res.Transaction.Status)

	dt, err := c.CreateDocumentType(ctx, "Invoice", true)
	require.NoError(t, err)
	res, err = c.Advance(ctx, txn.ID, "", "")
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.NotEmpty(t, res.Unmet)

	_, err = c.AttachDocument(ctx, txn.ID, dt.ID, "invoice-17.pdf")
	require.NoError(t, err)
	res, err = c.Advance(ctx, txn.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReconciled, res.Transaction.Status)

	history, err := c.History(ctx, txn.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "bob", history[len(history)-1].ChangedBy)

	is, err := c.IncomeStatement(ctx, ledger.DateRange{From: date("2024-03-01"), To: date("2024-03-31")})
	require.NoError(t, err)
	assert.Equal(t, int64(12500), is.NetIncome)
}

func TestClientAPIError(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	p, err := c.CreatePeriod(ctx, date("2024-01-01"), date("2024-03-31"), "Q1")
	require.NoError(t, err)
	_, err = c.CreatePeriod(ctx, date("2024-03-01"), date("2024-04-30"), "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Conflicts, 1)
	assert.Equal(t, p.ID, apiErr.Conflicts[0].ID)

	_, err = c.GetTransaction(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
