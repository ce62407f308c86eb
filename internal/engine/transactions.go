package engine

import (
	"context"

	"github.com/simonvc/bookkeeper/internal/ledger"
)

// TransitionResult is the outcome of a status move. Blocked is set, and the
// transaction left unchanged, when guard conditions are unmet.
type TransitionResult struct {
	Transaction *ledger.Transaction `json:"transaction"`
	Blocked     *ledger.Blocked     `json:"blocked,omitempty"`
}

// CreateTransaction validates a new transaction under the owner's settings
// and stores it. A draft that qualifies is promoted to pending on save.
func (e *Engine) CreateTransaction(ctx context.Context, txn *ledger.Transaction, actor string) error {
	if txn.Status == "" {
		txn.Status = ledger.StatusDraft
	}
	if txn.Status == ledger.StatusReconciled {
		return ledger.Invalid(ledger.ErrInvalidStatus, "a transaction cannot be created reconciled")
	}
	settings, err := e.repo.GetSettings(ctx, txn.OwnerID)
	if err != nil {
		return err
	}
	if err := txn.ValidateFor(settings); err != nil {
		return err
	}
	changes := e.autoPromote(txn, settings, actor)
	if err := e.repo.CreateTransaction(ctx, txn, changes...); err != nil {
		return err
	}
	e.log.Debug().Str("owner", txn.OwnerID).Str("id", txn.ID).Str("status", string(txn.Status)).Msg("transaction created")
	return nil
}

// CreateSplit stores a split group. Children are validated like ordinary
// transactions; the parent only carries the shared description.
func (e *Engine) CreateSplit(ctx context.Context, parent *ledger.Transaction, children []*ledger.Transaction) error {
	if parent.Status == "" {
		parent.Status = ledger.StatusDraft
	}
	settings, err := e.repo.GetSettings(ctx, parent.OwnerID)
	if err != nil {
		return err
	}
	for _, c := range children {
		c.OwnerID = parent.OwnerID
		if c.Status == "" {
			c.Status = parent.Status
		}
		if c.Date.IsZero() {
			c.Date = parent.Date
		}
		if c.Payee == "" && c.CustomerID == "" {
			c.Payee = parent.Payee
			c.CustomerID = parent.CustomerID
		}
		if err := c.ValidateFor(settings); err != nil {
			return err
		}
	}
	return e.repo.CreateSplit(ctx, parent, children)
}

// UpdateTransaction applies an edit. Status cannot change here; it keeps the
// stored value unless auto promotion applies to a draft.
func (e *Engine) UpdateTransaction(ctx context.Context, next *ledger.Transaction, actor string) error {
	prev, err := e.repo.GetTransaction(ctx, next.OwnerID, next.ID)
	if err != nil {
		return err
	}
	if next.Status == "" {
		next.Status = prev.Status
	}
	settings, err := e.repo.GetSettings(ctx, next.OwnerID)
	if err != nil {
		return err
	}
	if err := next.ValidateEdit(prev, settings); err != nil {
		return err
	}
	if next.Status != prev.Status {
		return ledger.CheckEdit(prev, next)
	}
	var changes []ledger.StatusChange
	if prev.SplitType != ledger.SplitParent {
		candidate := *next
		changes = e.autoPromote(&candidate, settings, actor)
	}
	return e.repo.UpdateTransaction(ctx, next, changes...)
}

func (e *Engine) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return e.repo.DeleteTransaction(ctx, ownerID, id)
}

func (e *Engine) GetTransaction(ctx context.Context, ownerID, id string) (*ledger.Transaction, error) {
	return e.repo.GetTransaction(ctx, ownerID, id)
}

func (e *Engine) History(ctx context.Context, ownerID, id string) ([]ledger.StatusChange, error) {
	return e.repo.History(ctx, ownerID, id)
}

// autoPromote moves a qualifying draft to pending and returns the history
// row for it. The draft only qualifies when it would also pass validation
// as pending.
func (e *Engine) autoPromote(txn *ledger.Transaction, settings ledger.Settings, actor string) []ledger.StatusChange {
	if !ledger.ShouldAutoPromote(txn, settings) {
		return nil
	}
	candidate := *txn
	candidate.Status = ledger.StatusPending
	if candidate.ValidateFor(settings) != nil {
		return nil
	}
	txn.Status = ledger.StatusPending
	return []ledger.StatusChange{{
		From:      ledger.StatusDraft,
		To:        ledger.StatusPending,
		ChangedBy: actor,
		Notes:     "promoted on save",
	}}
}

// Advance moves a transaction one step forward. When expected is set and
// differs from the stored status the call fails with a StateConflictError.
// Guard failures are reported in the result, not as an error.
func (e *Engine) Advance(ctx context.Context, ownerID, id string, expected ledger.Status, actor, notes string) (*TransitionResult, error) {
	txn, err := e.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if expected != "" && txn.Status != expected {
		return nil, &ledger.StateConflictError{Entity: "transaction " + id, State: string(txn.Status), Want: string(expected)}
	}
	next, err := ledger.Advance(txn.Status)
	if err != nil {
		if sc, ok := err.(*ledger.StateConflictError); ok {
			sc.Entity = "transaction " + id
		}
		return nil, err
	}

	settings, err := e.repo.GetSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var docs ledger.DocumentRequirement
	if next == ledger.StatusReconciled {
		docs, err = e.repo.DocumentRequirement(ctx, ownerID, id, settings)
		if err != nil {
			return nil, err
		}
	}
	if blocked := ledger.TransitionGuard(txn, next, settings, docs); blocked != nil {
		e.recorder.Blocked(string(next))
		e.log.Info().Str("owner", ownerID).Str("id", id).Str("to", string(next)).
			Strs("unmet", blocked.Unmet).Msg("transition blocked")
		return &TransitionResult{Transaction: txn, Blocked: blocked}, nil
	}

	from := txn.Status
	updated, err := e.repo.TransitionStatus(ctx, ownerID, id, from, next, actor, notes)
	if err != nil {
		return nil, err
	}
	e.recorder.Transition(string(from), string(next))
	e.log.Info().Str("owner", ownerID).Str("id", id).Str("from", string(from)).Str("to", string(next)).
		Str("actor", actor).Msg("transaction advanced")
	return &TransitionResult{Transaction: updated}, nil
}

// Unreconcile moves a reconciled transaction back to completed. The reason
// is kept in the history.
func (e *Engine) Unreconcile(ctx context.Context, ownerID, id, actor, reason string) (*ledger.Transaction, error) {
	txn, err := e.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Unreconcile(txn.Status, reason)
	if err != nil {
		if sc, ok := err.(*ledger.StateConflictError); ok {
			sc.Entity = "transaction " + id
		}
		return nil, err
	}
	updated, err := e.repo.TransitionStatus(ctx, ownerID, id, txn.Status, next, actor, reason)
	if err != nil {
		return nil, err
	}
	e.recorder.Transition(string(txn.Status), string(next))
	e.log.Info().Str("owner", ownerID).Str("id", id).Str("actor", actor).Str("reason", reason).Msg("transaction unreconciled")
	return updated, nil
}
