// Package engine applies the ledger rules on top of the store: it loads what
// a report needs, guards status transitions and runs the period closing
// workflow.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/simonvc/bookkeeper/internal/cache"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/store"
)

type AccountSource interface {
	GetAccount(ctx context.Context, ownerID, id string) (*ledger.Account, error)
	ListAccounts(ctx context.Context, ownerID string, filter store.AccountFilter) ([]ledger.Account, error)
}

type TransactionSource interface {
	GetTransaction(ctx context.Context, ownerID, id string) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, filter store.TxnFilter) ([]ledger.Transaction, error)
	History(ctx context.Context, ownerID, id string) ([]ledger.StatusChange, error)
}

type TransactionWriter interface {
	CreateTransaction(ctx context.Context, txn *ledger.Transaction, changes ...ledger.StatusChange) error
	CreateSplit(ctx context.Context, parent *ledger.Transaction, children []*ledger.Transaction) error
	UpdateTransaction(ctx context.Context, next *ledger.Transaction, changes ...ledger.StatusChange) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	TransitionStatus(ctx context.Context, ownerID, id string, expected, next ledger.Status, by, notes string) (*ledger.Transaction, error)
}

type DocumentGate interface {
	DocumentRequirement(ctx context.Context, ownerID, txnID string, settings ledger.Settings) (ledger.DocumentRequirement, error)
}

type SettingsSource interface {
	GetSettings(ctx context.Context, ownerID string) (ledger.Settings, error)
}

type PeriodStore interface {
	CreatePeriod(ctx context.Context, p *ledger.Period) error
	GetPeriod(ctx context.Context, ownerID, id string) (*ledger.Period, error)
	ListPeriods(ctx context.Context, ownerID string) ([]ledger.Period, error)
	ClosePeriod(ctx context.Context, ownerID, id, by string) (*ledger.Period, error)
	ReopenPeriod(ctx context.Context, ownerID, id string) (*ledger.Period, error)
	DeletePeriod(ctx context.Context, ownerID, id string) error
	CreateClosingEntries(ctx context.Context, ownerID, periodID string, entries []ledger.Transaction) ([]ledger.Transaction, error)
	ClosingEntries(ctx context.Context, ownerID, periodID string) ([]ledger.Transaction, error)
}

// Repository is everything the engine reads and writes. *store.Store
// implements it.
type Repository interface {
	AccountSource
	TransactionSource
	TransactionWriter
	DocumentGate
	SettingsSource
	PeriodStore
}

// Recorder receives workflow events for metrics.
type Recorder interface {
	Transition(from, to string)
	Blocked(to string)
	PeriodClosed()
	ClosingEntries(n int)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, string) {}
func (nopRecorder) Blocked(string)            {}
func (nopRecorder) PeriodClosed()             {}
func (nopRecorder) ClosingEntries(int)        {}

type Engine struct {
	repo     Repository
	cache    *cache.Cache
	log      zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*Engine)

// WithCache stores computed reports in c. Without it every report is
// recomputed.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func New(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithNow overrides the clock for deterministic tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}
