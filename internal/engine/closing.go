package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonvc/bookkeeper/internal/ledger"
)

// ClosingStep names the next step of the closing workflow for a period.
type ClosingStep string

const (
	// StepPreview: the period exists and has no closing entries yet.
	StepPreview ClosingStep = "preview"
	// StepLock: closing entries exist, the period is still open.
	StepLock ClosingStep = "lock"
	StepDone ClosingStep = "done"
)

// ClosingState lets a caller resume the workflow from the period id alone.
type ClosingState struct {
	Period  ledger.Period        `json:"period"`
	Step    ClosingStep          `json:"step"`
	Entries []ledger.Transaction `json:"entries"`
}

// OpenPeriod is step one: create the period. Overlap with any existing
// period of the owner is rejected.
func (e *Engine) OpenPeriod(ctx context.Context, p *ledger.Period) error {
	if err := e.repo.CreatePeriod(ctx, p); err != nil {
		return err
	}
	e.log.Info().Str("owner", p.OwnerID).Str("period", p.ID).
		Time("start", p.StartDate).Time("end", p.EndDate).Msg("period opened")
	return nil
}

func (e *Engine) GetPeriod(ctx context.Context, ownerID, id string) (*ledger.Period, error) {
	return e.repo.GetPeriod(ctx, ownerID, id)
}

func (e *Engine) ListPeriods(ctx context.Context, ownerID string) ([]ledger.Period, error) {
	return e.repo.ListPeriods(ctx, ownerID)
}

func (e *Engine) DeletePeriod(ctx context.Context, ownerID, id string) error {
	return e.repo.DeletePeriod(ctx, ownerID, id)
}

// closingTargets loads and checks the P&L and optional retained earnings
// accounts. A missing account is a validation failure of the request.
func (e *Engine) closingTargets(ctx context.Context, ownerID string, req ledger.ClosingRequest) error {
	if req.ProfitLossAccountID == "" {
		return ledger.Invalid(ledger.ErrClosingAccount, "profit and loss account is required")
	}
	pl, err := e.repo.GetAccount(ctx, ownerID, req.ProfitLossAccountID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return ledger.Invalid(ledger.ErrClosingAccount, "profit and loss account %s not found", req.ProfitLossAccountID)
	}
	if err != nil {
		return err
	}
	var retained *ledger.Account
	if req.RetainedEarningsAccountID != "" {
		retained, err = e.repo.GetAccount(ctx, ownerID, req.RetainedEarningsAccountID)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Invalid(ledger.ErrClosingAccount, "retained earnings account %s not found", req.RetainedEarningsAccountID)
		}
		if err != nil {
			return err
		}
	}
	return ledger.ValidateClosingTargets(pl, retained)
}

// PreviewClosing is step two: total the income and expense activity of the
// range. The range is the period's when req names one.
func (e *Engine) PreviewClosing(ctx context.Context, ownerID string, r ledger.DateRange, req ledger.ClosingRequest) (*ledger.ClosingPreview, error) {
	if req.PeriodID != "" {
		p, err := e.repo.GetPeriod(ctx, ownerID, req.PeriodID)
		if err != nil {
			return nil, err
		}
		r = p.Range()
	}
	if r.From.IsZero() || r.To.IsZero() {
		return nil, ledger.Invalid(ledger.ErrInvalidPeriodRange, "closing needs a start and an end date")
	}
	if err := e.closingTargets(ctx, ownerID, req); err != nil {
		return nil, err
	}
	snap, err := e.load(ctx, ownerID, r, false)
	if err != nil {
		return nil, err
	}
	preview := ledger.PreviewClosing(snap.accounts, snap.txns, r)
	return &preview, nil
}

// CreateClosingEntries is step three: write the entries that zero the
// period's income and expense accounts into the P&L account. It refuses to
// run twice for the same period and fails when there is nothing to close.
func (e *Engine) CreateClosingEntries(ctx context.Context, ownerID string, req ledger.ClosingRequest) ([]ledger.Transaction, error) {
	p, err := e.repo.GetPeriod(ctx, ownerID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if p.Status != ledger.PeriodOpen {
		return nil, &ledger.StateConflictError{Entity: "period " + p.ID, State: string(p.Status), Want: string(ledger.PeriodOpen)}
	}
	switch req.Status {
	case "":
		req.Status = ledger.StatusCompleted
	case ledger.StatusDraft, ledger.StatusPending, ledger.StatusCompleted:
	default:
		return nil, ledger.Invalid(ledger.ErrInvalidStatus, "closing entries cannot be created %s", req.Status)
	}
	if req.Date.IsZero() {
		req.Date = p.EndDate
	}
	if !p.Contains(req.Date) {
		return nil, ledger.Invalid(ledger.ErrInvalidPeriodRange, "closing date must fall inside the period")
	}
	// Once closed out the accounts net to zero, so check before building.
	existing, err := e.repo.ClosingEntries(ctx, ownerID, p.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: period %s", ledger.ErrClosingExists, p.ID)
	}

	preview, err := e.PreviewClosing(ctx, ownerID, p.Range(), req)
	if err != nil {
		return nil, err
	}
	entries := ledger.BuildClosingEntries(ownerID, *preview, req)
	if len(entries) == 0 {
		return nil, ledger.Invalid(ledger.ErrNoClosingActivity, "period %s", p.ID)
	}
	created, err := e.repo.CreateClosingEntries(ctx, ownerID, p.ID, entries)
	if err != nil {
		return nil, err
	}
	e.recorder.ClosingEntries(len(created))
	e.log.Info().Str("owner", ownerID).Str("period", p.ID).Int("entries", len(created)).
		Int64("net_result", preview.NetResult).Msg("closing entries created")
	return created, nil
}

// LockPeriod is step four: close the period against further changes.
func (e *Engine) LockPeriod(ctx context.Context, ownerID, id, actor string) (*ledger.Period, error) {
	p, err := e.repo.ClosePeriod(ctx, ownerID, id, actor)
	if err != nil {
		return nil, err
	}
	e.recorder.PeriodClosed()
	e.log.Info().Str("owner", ownerID).Str("period", id).Str("actor", actor).Msg("period closed")
	return p, nil
}

// ReopenPeriod is an administrative correction. Closing entries stay in
// place.
func (e *Engine) ReopenPeriod(ctx context.Context, ownerID, id, actor string) (*ledger.Period, error) {
	p, err := e.repo.ReopenPeriod(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	e.log.Warn().Str("owner", ownerID).Str("period", id).Str("actor", actor).Msg("period reopened")
	return p, nil
}

func (e *Engine) ClosingState(ctx context.Context, ownerID, periodID string) (*ClosingState, error) {
	p, err := e.repo.GetPeriod(ctx, ownerID, periodID)
	if err != nil {
		return nil, err
	}
	entries, err := e.repo.ClosingEntries(ctx, ownerID, periodID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ledger.Transaction{}
	}
	st := &ClosingState{Period: *p, Entries: entries}
	switch {
	case p.Status == ledger.PeriodClosed:
		st.Step = StepDone
	case len(entries) > 0:
		st.Step = StepLock
	default:
		st.Step = StepPreview
	}
	return st, nil
}
