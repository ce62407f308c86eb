package ledger

import (
	"slices"
	"strings"
	"time"
)

type SplitType string

const (
	SplitNone   SplitType = ""
	SplitParent SplitType = "parent"
	SplitChild  SplitType = "child"
)

// PostingMode tells which account fields of a transaction carry its postings.
type PostingMode int

const (
	ModeNone PostingMode = iota
	ModeLegacy
	ModeDoubleEntry
	// ModePartial has exactly one double-entry side set.
	ModePartial
	// ModeMixed has both double-entry sides and a legacy account that matches
	// neither. Double-entry fields are used; the record is reported.
	ModeMixed
)

func (m PostingMode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeDoubleEntry:
		return "double-entry"
	case ModePartial:
		return "partial"
	case ModeMixed:
		return "mixed"
	default:
		return "none"
	}
}

type Transaction struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Date            time.Time `json:"date"`
	Amount          int64     `json:"amount"`
	Payee           string    `json:"payee,omitempty"`
	CustomerID      string    `json:"customer_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	AccountID       string    `json:"account_id,omitempty"`
	DebitAccountID  string    `json:"debit_account_id,omitempty"`
	CreditAccountID string    `json:"credit_account_id,omitempty"`
	Status          Status    `json:"status"`
	SplitGroupID    string    `json:"split_group_id,omitempty"`
	SplitType       SplitType `json:"split_type,omitempty"`
	ClosingPeriodID string    `json:"closing_period_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Posting is one side of a transaction against one account.
type Posting struct {
	AccountID string
	Side      Side
	Amount    int64
}

func (t *Transaction) PostingMode() PostingMode {
	hasDebit := t.DebitAccountID != ""
	hasCredit := t.CreditAccountID != ""
	switch {
	case hasDebit && hasCredit:
		if t.AccountID != "" && t.AccountID != t.DebitAccountID && t.AccountID != t.CreditAccountID {
			return ModeMixed
		}
		return ModeDoubleEntry
	case hasDebit || hasCredit:
		return ModePartial
	case t.AccountID != "":
		return ModeLegacy
	default:
		return ModeNone
	}
}

// Posts reports whether the transaction moves balances at all.
func (t *Transaction) Posts() bool {
	return t.Status != StatusDraft && t.SplitType != SplitParent
}

// Postings expands the transaction into account postings. Drafts and split
// parents produce none.
func (t *Transaction) Postings() []Posting {
	if !t.Posts() {
		return nil
	}
	switch t.PostingMode() {
	case ModeDoubleEntry, ModeMixed:
		if t.DebitAccountID == t.CreditAccountID {
			return []Posting{singleEntry(t.DebitAccountID, t.Amount)}
		}
		return []Posting{
			{AccountID: t.DebitAccountID, Side: Debit, Amount: t.Amount},
			{AccountID: t.CreditAccountID, Side: Credit, Amount: t.Amount},
		}
	case ModePartial:
		if t.DebitAccountID != "" {
			return []Posting{{AccountID: t.DebitAccountID, Side: Debit, Amount: t.Amount}}
		}
		return []Posting{{AccountID: t.CreditAccountID, Side: Credit, Amount: t.Amount}}
	case ModeLegacy:
		return []Posting{singleEntry(t.AccountID, t.Amount)}
	}
	return nil
}

// singleEntry books a signed amount: non-negative debits, negative credits.
func singleEntry(accountID string, amount int64) Posting {
	if amount >= 0 {
		return Posting{AccountID: accountID, Side: Debit, Amount: amount}
	}
	return Posting{AccountID: accountID, Side: Credit, Amount: -amount}
}

// Contribution returns the debit and credit totals this transaction adds to
// the given account.
func (t *Transaction) Contribution(accountID string) Totals {
	var tot Totals
	for _, p := range t.Postings() {
		if p.AccountID == accountID {
			tot.Add(p)
		}
	}
	return tot
}

// AccountIDs lists every account referenced by the transaction.
func (t *Transaction) AccountIDs() []string {
	var ids []string
	for _, id := range []string{t.AccountID, t.DebitAccountID, t.CreditAccountID} {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Touches reports whether the transaction references the account in any field.
func (t *Transaction) Touches(accountID string) bool {
	return slices.Contains(t.AccountIDs(), accountID)
}

// Validate checks the fields every transaction needs regardless of status.
func (t *Transaction) Validate() error {
	if t.OwnerID == "" {
		return ErrMissingOwner
	}
	if t.Date.IsZero() {
		return Invalid(ErrMissingDate, "transaction %s", t.ID)
	}
	if !ValidStatus(t.Status) {
		return Invalid(ErrInvalidStatus, "%q", t.Status)
	}
	if t.PostingMode() == ModeMixed {
		return Invalid(ErrMixedPosting, "account %s is neither %s nor %s",
			t.AccountID, t.DebitAccountID, t.CreditAccountID)
	}
	switch t.SplitType {
	case SplitNone, SplitParent, SplitChild:
	default:
		return Invalid(ErrInvalidSplit, "split type %q", t.SplitType)
	}
	return nil
}

// ValidateFor checks the fields required outside of draft under the owner's
// settings.
func (t *Transaction) ValidateFor(s Settings) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Status == StatusDraft || t.SplitType == SplitParent {
		return nil
	}
	return t.missingRequired(s)
}

func (t *Transaction) missingRequired(s Settings) error {
	if !t.HasCounterparty() {
		return Invalid(ErrMissingPayee, "transaction %s", t.ID)
	}
	mode := t.PostingMode()
	if s.DoubleEntryMode {
		if mode != ModeDoubleEntry {
			return Invalid(ErrMissingAccounts, "debit and credit accounts are required")
		}
		return nil
	}
	if mode != ModeLegacy && mode != ModeDoubleEntry {
		return Invalid(ErrMissingAccounts, "an account or both debit and credit accounts are required")
	}
	return nil
}

// ValidateEdit checks an edit of prev. A completed or reconciled record keeps
// the accounts it posted to, so settings changed since then are not applied
// unless the edit touches those accounts.
func (t *Transaction) ValidateEdit(prev *Transaction, s Settings) error {
	if !prev.Locked() || prev.AccountsChanged(t) {
		return t.ValidateFor(s)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if prev.SplitType != SplitParent && !t.HasCounterparty() {
		return Invalid(ErrMissingPayee, "transaction %s", t.ID)
	}
	return nil
}

// Locked reports whether the transaction is past the point where its
// amounts and accounts can change.
func (t *Transaction) Locked() bool {
	return len(LockedFields(t.Status)) > 0
}

// AccountsChanged reports whether next references different accounts.
func (t *Transaction) AccountsChanged(next *Transaction) bool {
	return t.AccountID != next.AccountID ||
		t.DebitAccountID != next.DebitAccountID ||
		t.CreditAccountID != next.CreditAccountID
}

// HasCounterparty reports whether a payee or customer is set.
func (t *Transaction) HasCounterparty() bool {
	return strings.TrimSpace(t.Payee) != "" || t.CustomerID != ""
}

// LockedFields lists fields that can no longer change in the given status.
func LockedFields(s Status) []string {
	switch s {
	case StatusCompleted, StatusReconciled:
		return []string{"date", "amount", "account_id", "debit_account_id", "credit_account_id", "customer_id"}
	default:
		return nil
	}
}

// CheckEdit compares an update against the stored record and rejects changes
// to locked fields. Status changes go through the state machine only.
func CheckEdit(prev, next *Transaction) error {
	if next.Status != prev.Status {
		return Invalid(ErrInvalidStatus, "status of %s changes through transitions only", prev.ID)
	}
	if prev.SplitType == SplitParent && next.Amount != prev.Amount {
		return Invalid(ErrFieldLocked, "split parent amount is derived from its children")
	}
	locked := LockedFields(prev.Status)
	if len(locked) == 0 {
		return nil
	}
	changed := map[string]bool{
		"date":              !prev.Date.Equal(next.Date),
		"amount":            prev.Amount != next.Amount,
		"account_id":        prev.AccountID != next.AccountID,
		"debit_account_id":  prev.DebitAccountID != next.DebitAccountID,
		"credit_account_id": prev.CreditAccountID != next.CreditAccountID,
		"customer_id":       prev.CustomerID != next.CustomerID,
	}
	for _, f := range locked {
		if changed[f] {
			return Invalid(ErrFieldLocked, "%s cannot change once %s", f, prev.Status)
		}
	}
	return nil
}

// CanDelete reports whether the transaction may be deleted.
func (t *Transaction) CanDelete() error {
	if t.Status == StatusReconciled {
		return &StateConflictError{Entity: "transaction " + t.ID, State: string(t.Status)}
	}
	return nil
}

// SplitGroup links children to a parent and derives the parent amount from
// the children.
func SplitGroup(groupID string, parent *Transaction, children []*Transaction) error {
	if len(children) == 0 {
		return Invalid(ErrSplitChildrenRequired, "group %s", groupID)
	}
	var sum int64
	for _, c := range children {
		c.SplitGroupID = groupID
		c.SplitType = SplitChild
		sum += c.Amount
	}
	parent.SplitGroupID = groupID
	parent.SplitType = SplitParent
	parent.Amount = sum
	return nil
}
