package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

// parseRange reads the optional from and to query parameters. An unset
// bound leaves the range open on that side.
func parseRange(w http.ResponseWriter, r *http.Request) (ledger.DateRange, bool) {
	var rng ledger.DateRange
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &rng.From}, {"to", &rng.To}} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+p.name+" date: "+v)
			return rng, false
		}
		*p.dst = t
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.From.After(rng.To) {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return rng, false
	}
	return rng, true
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	is, err := s.engine.IncomeStatement(r.Context(), ownerFrom(r), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	bs, err := s.engine.BalanceSheet(r.Context(), ownerFrom(r), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	tb, err := s.engine.TrialBalance(r.Context(), ownerFrom(r), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) accountBalances(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	nodes, err := s.engine.AccountBalances(r.Context(), ownerFrom(r), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) accountLedger(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	l, err := s.engine.AccountLedger(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
