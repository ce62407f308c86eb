package ledger

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusReconciled Status = "reconciled"
)

var statusOrder = []Status{StatusDraft, StatusPending, StatusCompleted, StatusReconciled}

func ValidStatus(s Status) bool {
	for _, v := range statusOrder {
		if v == s {
			return true
		}
	}
	return false
}

// Next returns the status one step forward.
func (s Status) Next() (Status, bool) {
	for i, v := range statusOrder {
		if v == s && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// StatusChange is one row of the append-only history log.
type StatusChange struct {
	ID            int64     `json:"id,omitempty"`
	TransactionID string    `json:"transaction_id"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
	ChangedBy     string    `json:"changed_by"`
	Notes         string    `json:"notes,omitempty"`
}

// Advance computes the single forward step from current. Reconciled is
// terminal for forward moves.
func Advance(current Status) (Status, error) {
	if !ValidStatus(current) {
		return "", Invalid(ErrInvalidStatus, "%q", current)
	}
	next, ok := current.Next()
	if !ok {
		return "", &StateConflictError{Entity: "transaction", State: string(current)}
	}
	return next, nil
}

// Unreconcile is the only backward move, reconciled to completed, and it
// needs a reason.
func Unreconcile(current Status, reason string) (Status, error) {
	if current != StatusReconciled {
		return "", &StateConflictError{Entity: "transaction", State: string(current), Want: string(StatusReconciled)}
	}
	if strings.TrimSpace(reason) == "" {
		return "", Invalid(ErrReasonRequired, "unreconcile needs a reason")
	}
	return StatusCompleted, nil
}

// DocumentRequirement counts the required document types and how many of
// them are attached to a transaction.
type DocumentRequirement struct {
	Required int `json:"required"`
	Attached int `json:"attached"`
	Minimum  int `json:"minimum"`
}

// Threshold is the number of attached required types needed: all of them, or
// Minimum when it is set and smaller.
func (d DocumentRequirement) Threshold() int {
	if d.Minimum == 0 {
		return d.Required
	}
	return min(d.Minimum, d.Required)
}

// Satisfied holds vacuously when no document type is required.
func (d DocumentRequirement) Satisfied() bool {
	if d.Required == 0 {
		return true
	}
	return d.Attached >= d.Threshold()
}

// TransitionGuard collects unmet conditions for moving a transaction to the
// target status. A nil result means the move may proceed.
func TransitionGuard(t *Transaction, to Status, s Settings, docs DocumentRequirement) *Blocked {
	var unmet []string
	if to != StatusDraft {
		check := *t
		check.Status = to
		if err := check.missingRequired(s); err != nil && t.SplitType != SplitParent {
			unmet = append(unmet, err.Error())
		}
	}
	if to == StatusReconciled && !docs.Satisfied() {
		unmet = append(unmet, fmt.Sprintf("%d of %d required documents attached", docs.Attached, docs.Threshold()))
	}
	if len(unmet) == 0 {
		return nil
	}
	return &Blocked{Unmet: unmet}
}

// ShouldAutoPromote reports whether a draft is promoted to pending on save.
func ShouldAutoPromote(t *Transaction, s Settings) bool {
	return s.AutoDraftToPending && t.Status == StatusDraft && t.HasCounterparty()
}
