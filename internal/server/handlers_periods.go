package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type periodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type closingRequest struct {
	ProfitLossAccountID       string `json:"profit_loss_account_id" validate:"required"`
	RetainedEarningsAccountID string `json:"retained_earnings_account_id"`
	Date                      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status                    string `json:"status" validate:"omitempty,oneof=draft pending completed"`
}

func (req closingRequest) request(periodID string) ledger.ClosingRequest {
	out := ledger.ClosingRequest{
		PeriodID:                  periodID,
		ProfitLossAccountID:       req.ProfitLossAccountID,
		RetainedEarningsAccountID: req.RetainedEarningsAccountID,
		Status:                    ledger.Status(req.Status),
	}
	if req.Date != "" {
		out.Date, _ = time.Parse(dateLayout, req.Date)
	}
	return out
}

type previewRequest struct {
	closingRequest
	PeriodID string `json:"period_id"`
	From     string `json:"from" validate:"required_without=PeriodID,omitempty,datetime=2006-01-02"`
	To       string `json:"to" validate:"required_without=PeriodID,omitempty,datetime=2006-01-02"`
}

type closingEntriesResponse struct {
	Entries []ledger.Transaction `json:"entries"`
}

func (s *Server) createPeriod(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if !s.decode(w, r, &req) {
		return
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	p := &ledger.Period{OwnerID: ownerFrom(r), StartDate: start, EndDate: end, Notes: req.Notes}
	if err := s.engine.OpenPeriod(r.Context(), p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.engine.ListPeriods(r.Context(), ownerFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if periods == nil {
		periods = []ledger.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) getPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.GetPeriod(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePeriod(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeletePeriod(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) closePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.LockPeriod(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) reopenPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.ReopenPeriod(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) previewClosing(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !s.decode(w, r, &req) {
		return
	}
	var rng ledger.DateRange
	rng.From, _ = time.Parse(dateLayout, req.From)
	rng.To, _ = time.Parse(dateLayout, req.To)

	preview, err := s.engine.PreviewClosing(r.Context(), ownerFrom(r), rng, req.request(req.PeriodID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) createClosingEntries(w http.ResponseWriter, r *http.Request) {
	var req closingRequest
	if !s.decode(w, r, &req) {
		return
	}
	entries, err := s.engine.CreateClosingEntries(r.Context(), ownerFrom(r), req.request(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, closingEntriesResponse{Entries: entries})
}

func (s *Server) closingState(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ClosingState(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
