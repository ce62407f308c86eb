package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/simonvc/bookkeeper/internal/engine"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/observability"
	"github.com/simonvc/bookkeeper/internal/store"
	"github.com/unrolled/secure"
)

// Store is the plain record keeping the handlers use directly. Anything
// with ledger rules attached goes through the engine.
type Store interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, acct *ledger.Account) error
	GetAccount(ctx context.Context, ownerID, id string) (*ledger.Account, error)
	ListAccounts(ctx context.Context, ownerID string, filter store.AccountFilter) ([]ledger.Account, error)
	UpdateAccount(ctx context.Context, acct *ledger.Account) error
	DeleteAccount(ctx context.Context, ownerID, id string) error
	SeedChart(ctx context.Context, ownerID string) ([]ledger.Account, error)

	ListTransactions(ctx context.Context, ownerID string, filter store.TxnFilter) ([]ledger.Transaction, error)

	GetSettings(ctx context.Context, ownerID string) (ledger.Settings, error)
	PutSettings(ctx context.Context, st ledger.Settings) error

	CreateDocumentType(ctx context.Context, dt *ledger.DocumentType) error
	ListDocumentTypes(ctx context.Context, ownerID string) ([]ledger.DocumentType, error)
	AttachDocument(ctx context.Context, doc *ledger.Document) error
	ListDocuments(ctx context.Context, ownerID, txnID string) ([]ledger.Document, error)
	DetachDocument(ctx context.Context, ownerID, id string) error
}

type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
	Dev       bool
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
}

type Server struct {
	store    Store
	engine   *engine.Engine
	router   chi.Router
	opts     Options
	log      zerolog.Logger
	validate *validator.Validate
	http     *http.Server
}

func New(st Store, eng *engine.Engine, opts Options) *Server {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()
	s := &Server{
		store:    st,
		engine:   eng,
		router:   r,
		opts:     opts,
		log:      opts.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
		IsDevelopment:      opts.Dev,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(sec.Handler)
	r.Use(s.accessLog)
	r.Use(opts.Metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", opts.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		if opts.RateLimit > 0 {
			r.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		// Reference data needs no owner.
		r.Get("/chart", s.getChart)

		r.Group(func(r chi.Router) {
			r.Use(requireOwner)

			r.Post("/chart/seed", s.seedChart)

			// Accounts
			r.Post("/accounts", s.createAccount)
			r.Get("/accounts", s.listAccounts)
			r.Get("/accounts/{id}", s.getAccount)
			r.Put("/accounts/{id}", s.updateAccount)
			r.Delete("/accounts/{id}", s.deleteAccount)
			r.Get("/accounts/{id}/ledger", s.accountLedger)

			// Transactions
			r.Post("/transactions", s.createTransaction)
			r.Post("/transactions/split", s.createSplit)
			r.Get("/transactions", s.listTransactions)
			r.Get("/transactions/{id}", s.getTransaction)
			r.Put("/transactions/{id}", s.updateTransaction)
			r.Delete("/transactions/{id}", s.deleteTransaction)
			r.Post("/transactions/{id}/advance", s.advanceTransaction)
			r.Post("/transactions/{id}/unreconcile", s.unreconcileTransaction)
			r.Get("/transactions/{id}/history", s.transactionHistory)
			r.Get("/transactions/{id}/documents", s.listDocuments)
			r.Post("/transactions/{id}/documents", s.attachDocument)
			r.Delete("/transactions/{id}/documents/{docID}", s.detachDocument)

			// Periods and closing
			r.Post("/periods", s.createPeriod)
			r.Get("/periods", s.listPeriods)
			r.Get("/periods/{id}", s.getPeriod)
			r.Delete("/periods/{id}", s.deletePeriod)
			r.Post("/periods/{id}/close", s.closePeriod)
			r.Post("/periods/{id}/reopen", s.reopenPeriod)
			r.Post("/periods/{id}/closing-entries", s.createClosingEntries)
			r.Get("/periods/{id}/closing-state", s.closingState)
			r.Post("/closing/preview", s.previewClosing)

			// Reports
			r.Get("/reports/income-statement", s.incomeStatement)
			r.Get("/reports/balance-sheet", s.balanceSheet)
			r.Get("/reports/trial-balance", s.trialBalance)
			r.Get("/reports/balances", s.accountBalances)

			// Settings and document types
			r.Get("/settings", s.getSettings)
			r.Put("/settings", s.putSettings)
			r.Get("/document-types", s.listDocumentTypes)
			r.Post("/document-types", s.createDocumentType)
		})
	})

	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.opts.Addr).Msg("bookkeeper server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("bookkeeper server listening")
	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
