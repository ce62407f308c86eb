package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/store"
)

const dateLayout = "2006-01-02"

type transactionRequest struct {
	Date            string   `json:"date" validate:"required,datetime=2006-01-02"`
	Amount          int64    `json:"amount"`
	Payee           string   `json:"payee" validate:"max=200"`
	CustomerID      string   `json:"customer_id" validate:"max=100"`
	Notes           string   `json:"notes" validate:"max=2000"`
	Tags            []string `json:"tags" validate:"max=20,dive,required,max=50"`
	AccountID       string   `json:"account_id"`
	DebitAccountID  string   `json:"debit_account_id"`
	CreditAccountID string   `json:"credit_account_id"`
	Status          string   `json:"status" validate:"omitempty,oneof=draft pending completed reconciled"`
}

func (req transactionRequest) transaction(ownerID string) *ledger.Transaction {
	date, _ := time.Parse(dateLayout, req.Date)
	return &ledger.Transaction{
		OwnerID:         ownerID,
		Date:            date,
		Amount:          req.Amount,
		Payee:           req.Payee,
		CustomerID:      req.CustomerID,
		Notes:           req.Notes,
		Tags:            req.Tags,
		AccountID:       req.AccountID,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		Status:          ledger.Status(req.Status),
	}
}

type splitRequest struct {
	Date       string               `json:"date" validate:"required,datetime=2006-01-02"`
	Payee      string               `json:"payee" validate:"max=200"`
	CustomerID string               `json:"customer_id" validate:"max=100"`
	Notes      string               `json:"notes" validate:"max=2000"`
	Status     string               `json:"status" validate:"omitempty,oneof=draft pending completed"`
	Children   []transactionRequest `json:"children" validate:"required,min=1,dive"`
}

type splitResponse struct {
	Parent   *ledger.Transaction   `json:"parent"`
	Children []*ledger.Transaction `json:"children"`
}

type advanceRequest struct {
	Expected string `json:"expected" validate:"omitempty,oneof=draft pending completed reconciled"`
	Notes    string `json:"notes" validate:"max=2000"`
}

type unreconcileRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type blockedResponse struct {
	Blocked     bool                `json:"blocked"`
	Unmet       []string            `json:"unmet"`
	Transaction *ledger.Transaction `json:"transaction"`
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn := req.transaction(ownerFrom(r))
	if err := s.engine.CreateTransaction(r.Context(), txn, actorFrom(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (s *Server) createSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner := ownerFrom(r)
	date, _ := time.Parse(dateLayout, req.Date)
	parent := &ledger.Transaction{
		OwnerID:    owner,
		Date:       date,
		Payee:      req.Payee,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
		Status:     ledger.Status(req.Status),
	}
	children := make([]*ledger.Transaction, 0, len(req.Children))
	for _, c := range req.Children {
		children = append(children, c.transaction(owner))
	}
	if err := s.engine.CreateSplit(r.Context(), parent, children); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, splitResponse{Parent: parent, Children: children})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	filter := store.TxnFilter{
		AccountID:     q.Get("account_id"),
		Range:         rng,
		Status:        ledger.Status(q.Get("status")),
		IncludeDrafts: q.Get("include_drafts") != "false",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset: "+v)
			return
		}
		filter.Offset = n
	}

	txns, err := s.store.ListTransactions(r.Context(), ownerFrom(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if txns == nil {
		txns = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.engine.GetTransaction(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn := req.transaction(ownerFrom(r))
	txn.ID = chi.URLParam(r, "id")
	if err := s.engine.UpdateTransaction(r.Context(), txn, actorFrom(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteTransaction(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// advanceTransaction moves the transaction one status forward. A guard that
// refuses the move is not an error: the response is 200 with blocked set.
func (s *Server) advanceTransaction(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Advance(r.Context(), ownerFrom(r), chi.URLParam(r, "id"),
		ledger.Status(req.Expected), actorFrom(r), req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Blocked != nil {
		writeJSON(w, http.StatusOK, blockedResponse{Blocked: true, Unmet: res.Blocked.Unmet, Transaction: res.Transaction})
		return
	}
	writeJSON(w, http.StatusOK, res.Transaction)
}

func (s *Server) unreconcileTransaction(w http.ResponseWriter, r *http.Request) {
	var req unreconcileRequest
	if !s.decode(w, r, &req) {
		return
	}
	txn, err := s.engine.Unreconcile(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), actorFrom(r), req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) transactionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if history == nil {
		history = []ledger.StatusChange{}
	}
	writeJSON(w, http.StatusOK, history)
}
