package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/simonvc/bookkeeper/internal/store"
)

type accountRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Code           string `json:"code" validate:"omitempty,numeric,max=12"`
	Class          string `json:"class" validate:"omitempty,oneof=asset liability equity income expense"`
	Type           string `json:"type" validate:"omitempty,oneof=debit credit neutral"`
	IsOpen         *bool  `json:"is_open"`
	IsReadOnly     bool   `json:"is_read_only"`
	OpeningBalance int64  `json:"opening_balance"`
}

func (req accountRequest) apply(acct *ledger.Account) {
	acct.Name = req.Name
	acct.Code = req.Code
	acct.Class = ledger.AccountClass(req.Class)
	acct.Type = ledger.AccountType(req.Type)
	acct.IsReadOnly = req.IsReadOnly
	acct.OpeningBalance = req.OpeningBalance
	if req.IsOpen != nil {
		acct.IsOpen = *req.IsOpen
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.decode(w, r, &req) {
		return
	}
	acct := &ledger.Account{OwnerID: ownerFrom(r), IsOpen: true}
	req.apply(acct)

	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	filter := store.AccountFilter{
		Class:         ledger.AccountClass(r.URL.Query().Get("class")),
		IncludeClosed: r.URL.Query().Get("include_closed") == "true",
	}
	accounts, err := s.store.ListAccounts(r.Context(), ownerFrom(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.decode(w, r, &req) {
		return
	}
	acct, err := s.store.GetAccount(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req.apply(acct)
	if err := s.store.UpdateAccount(r.Context(), acct); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.DefaultChart)
}

// seedChart creates the default chart for the owner. Accounts that already
// exist are left alone.
func (s *Server) seedChart(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.SeedChart(r.Context(), ownerFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}
