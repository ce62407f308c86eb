package engine

import (
	"context"
	"time"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/store"
	"golang.org/x/sync/errgroup"
)

// snapshot is what every report is computed from: all accounts of the owner
// and every transaction dated up to the end of the range.
type snapshot struct {
	accounts []ledger.Account
	txns     []ledger.Transaction
}

func (e *Engine) load(ctx context.Context, ownerID string, r ledger.DateRange, withDrafts bool) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := e.repo.ListAccounts(ctx, ownerID, store.AccountFilter{IncludeClosed: true})
		snap.accounts = accounts
		return err
	})
	g.Go(func() error {
		txns, err := e.repo.ListTransactions(ctx, ownerID, store.TxnFilter{
			Range:         ledger.DateRange{To: r.To},
			IncludeDrafts: withDrafts,
		})
		snap.txns = txns
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func rangeKey(r ledger.DateRange) (string, string) {
	from, to := "-", "-"
	if !r.From.IsZero() {
		from = r.From.Format(time.DateOnly)
	}
	if !r.To.IsZero() {
		to = r.To.Format(time.DateOnly)
	}
	return from, to
}

// cached runs build through the report cache.
func (e *Engine) cached(ctx context.Context, ownerID, report string, r ledger.DateRange, dest any, build func(snapshot) any) error {
	from, to := rangeKey(r)
	key, err := e.cache.Key(ctx, ownerID, report, from, to)
	if err != nil {
		return err
	}
	return e.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
		snap, err := e.load(ctx, ownerID, r, false)
		if err != nil {
			return nil, err
		}
		return build(snap), nil
	})
}

func (e *Engine) IncomeStatement(ctx context.Context, ownerID string, r ledger.DateRange) (*ledger.IncomeStatement, error) {
	var out ledger.IncomeStatement
	err := e.cached(ctx, ownerID, "income-statement", r, &out, func(s snapshot) any {
		is := ledger.BuildIncomeStatement(s.accounts, s.txns, r)
		is.GeneratedAt = e.now()
		return is
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BalanceSheet reports balances as of the end of the range. A zero From
// includes all history, which is the usual way to ask for it.
func (e *Engine) BalanceSheet(ctx context.Context, ownerID string, r ledger.DateRange) (*ledger.BalanceSheet, error) {
	var out ledger.BalanceSheet
	err := e.cached(ctx, ownerID, "balance-sheet", r, &out, func(s snapshot) any {
		bs := ledger.BuildBalanceSheet(s.accounts, s.txns, r)
		bs.GeneratedAt = e.now()
		return bs
	})
	if err != nil {
		return nil, err
	}
	if !out.IsBalanced {
		e.log.Warn().Str("owner", ownerID).Int64("difference", out.Difference).
			Int64("unclosed_earnings", out.Totals.UnclosedEarnings).Msg("balance sheet out of balance")
	}
	return &out, nil
}

func (e *Engine) TrialBalance(ctx context.Context, ownerID string, r ledger.DateRange) (*ledger.TrialBalance, error) {
	var out ledger.TrialBalance
	err := e.cached(ctx, ownerID, "trial-balance", r, &out, func(s snapshot) any {
		return ledger.BuildTrialBalance(s.accounts, s.txns, r)
	})
	if err != nil {
		return nil, err
	}
	if !out.IsBalanced {
		e.log.Warn().Str("owner", ownerID).Int64("difference", out.Difference).Msg("trial balance out of balance")
	}
	return &out, nil
}

// AccountLedger returns the register of one account. Drafts are listed with
// a zero change; it is not cached because it is per account.
func (e *Engine) AccountLedger(ctx context.Context, ownerID, accountID string, r ledger.DateRange) (*ledger.AccountLedger, error) {
	acct, err := e.repo.GetAccount(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	txns, err := e.repo.ListTransactions(ctx, ownerID, store.TxnFilter{
		AccountID:     accountID,
		Range:         ledger.DateRange{To: r.To},
		IncludeDrafts: true,
	})
	if err != nil {
		return nil, err
	}
	l := ledger.BuildAccountLedger(*acct, txns, r)
	return &l, nil
}

// AccountBalances returns the balance of every account with the hierarchy
// rolled up, as the chart view shows it.
func (e *Engine) AccountBalances(ctx context.Context, ownerID string, r ledger.DateRange) ([]ledger.AccountNode, error) {
	var out []ledger.AccountNode
	err := e.cached(ctx, ownerID, "balances", r, &out, func(s snapshot) any {
		f := ledger.Aggregate(ledger.Balances(s.accounts, s.txns, r, true))
		nodes := f.Tree()
		for _, u := range f.Uncoded {
			nodes = append(nodes, ledger.AccountNode{AccountBalance: u})
		}
		if nodes == nil {
			nodes = []ledger.AccountNode{}
		}
		return nodes
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
