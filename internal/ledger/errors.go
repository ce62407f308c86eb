package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAccountCode    = errors.New("invalid account code")
	ErrInvalidAccountClass   = errors.New("invalid account class")
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrEmptyAccountName      = errors.New("account name is required")
	ErrAccountNotFound       = errors.New("account not found")
	ErrDuplicateAccount      = errors.New("account already exists")
	ErrAccountInUse          = errors.New("account has postings")
	ErrAccountReadOnly       = errors.New("account is read-only")
	ErrAccountClosed         = errors.New("account is closed")
	ErrSideNotAllowed        = errors.New("account does not accept entries on this side")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrMissingOwner          = errors.New("owner is required")
	ErrMissingPayee          = errors.New("payee or customer is required")
	ErrMissingAccounts       = errors.New("transaction accounts are required")
	ErrMixedPosting          = errors.New("legacy account does not match either double-entry side")
	ErrInvalidStatus         = errors.New("invalid transaction status")
	ErrInvalidSplit          = errors.New("invalid split type")
	ErrMissingDate           = errors.New("transaction date is required")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrFieldLocked           = errors.New("field is locked")
	ErrReasonRequired        = errors.New("a reason is required")
	ErrPeriodNotFound        = errors.New("period not found")
	ErrInvalidPeriodRange    = errors.New("period start must not be after end")
	ErrPeriodOverlap         = errors.New("period overlaps an existing period")
	ErrPeriodClosed          = errors.New("date falls within a closed period")
	ErrNoClosingActivity     = errors.New("no income or expense activity in range")
	ErrDocumentTypeNotFound  = errors.New("document type not found")
	ErrSplitChildrenRequired = errors.New("split group needs at least one child")
	ErrInvalidSettings       = errors.New("invalid settings")
	ErrClosingAccount        = errors.New("invalid closing target account")
	ErrClosingExists         = errors.New("closing entries already exist for period")
)

// ValidationError rejects an input. Conflicts lists the records that caused
// the rejection, for example overlapping periods.
type ValidationError struct {
	Err       error
	Reason    string
	Conflicts []Period
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps a sentinel in a ValidationError.
func Invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Reason: fmt.Sprintf(format, args...)}
}

// StateConflictError reports a transition attempted from the wrong state.
type StateConflictError struct {
	Entity string
	State  string
	Want   string
}

func (e *StateConflictError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("%s is %s, expected %s", e.Entity, e.State, e.Want)
	}
	return fmt.Sprintf("%s already in state %s", e.Entity, e.State)
}

// Blocked is returned instead of a transition when guard conditions are unmet.
// It is a result, not a failure.
type Blocked struct {
	Unmet []string `json:"unmet"`
}

func (b *Blocked) String() string {
	return "blocked: " + strings.Join(b.Unmet, "; ")
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStateConflict reports whether err is a StateConflictError.
func IsStateConflict(err error) bool {
	var s *StateConflictError
	return errors.As(err, &s)
}
