package ledger

import (
	"fmt"
	"strings"
	"time"
)

type AccountClass string

const (
	ClassAsset     AccountClass = "asset"
	ClassLiability AccountClass = "liability"
	ClassEquity    AccountClass = "equity"
	ClassIncome    AccountClass = "income"
	ClassExpense   AccountClass = "expense"
)

var AllClasses = []AccountClass{
	ClassAsset,
	ClassLiability,
	ClassEquity,
	ClassIncome,
	ClassExpense,
}

// AccountType is the legacy restriction on which side an account accepts.
type AccountType string

const (
	TypeDebit   AccountType = "debit"
	TypeCredit  AccountType = "credit"
	TypeNeutral AccountType = "neutral"
)

type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// NormalBalance is the side on which an account class increases.
func NormalBalance(class AccountClass) Side {
	switch class {
	case ClassAsset, ClassExpense:
		return Debit
	default:
		return Credit
	}
}

// Classification is either a classified account (one of the five classes) or
// a legacy account that only carries an AccountType.
type Classification struct {
	class  AccountClass
	legacy AccountType
}

func Classified(class AccountClass) Classification {
	return Classification{class: class}
}

func Legacy(t AccountType) Classification {
	return Classification{legacy: t}
}

// Classify builds the classification from the stored columns. A known class
// always wins over the legacy type.
func Classify(class AccountClass, t AccountType) Classification {
	if ValidClass(class) {
		return Classified(class)
	}
	return Legacy(t)
}

// Class returns the account class and whether the account is classified.
func (c Classification) Class() (AccountClass, bool) {
	return c.class, c.class != ""
}

func (c Classification) NormalBalance() Side {
	if class, ok := c.Class(); ok {
		return NormalBalance(class)
	}
	// Unclassified accounts present as debit-normal.
	return Debit
}

type Account struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"owner_id"`
	Name           string       `json:"name"`
	Code           string       `json:"code,omitempty"`
	Class          AccountClass `json:"class,omitempty"`
	Type           AccountType  `json:"type,omitempty"`
	IsOpen         bool         `json:"is_open"`
	IsReadOnly     bool         `json:"is_read_only"`
	OpeningBalance int64        `json:"opening_balance"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (a *Account) Classification() Classification {
	return Classify(a.Class, a.Type)
}

func (a *Account) NormalBalance() Side {
	return a.Classification().NormalBalance()
}

// Level is the depth of the account in the chart, zero for top-level codes.
func (a *Account) Level() int {
	if a.Code == "" {
		return 0
	}
	return len(a.Code) - 1
}

// ParentCode returns the code of the parent account, or "" for top-level
// and uncoded accounts.
func (a *Account) ParentCode() string {
	if len(a.Code) <= 1 {
		return ""
	}
	return a.Code[:len(a.Code)-1]
}

// AllowsSide applies the legacy account type restriction.
func (a *Account) AllowsSide(s Side) bool {
	switch a.Type {
	case TypeDebit:
		return s == Debit
	case TypeCredit:
		return s == Credit
	default:
		return true
	}
}

// Validate checks the account fields that do not depend on other records.
func (a *Account) Validate() error {
	if a.OwnerID == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(a.Name) == "" {
		return Invalid(ErrEmptyAccountName, "account %q", a.ID)
	}
	if a.Code != "" && !isDigits(a.Code) {
		return Invalid(ErrInvalidAccountCode, "%q must contain digits only", a.Code)
	}
	if a.Class != "" && !ValidClass(a.Class) {
		return Invalid(ErrInvalidAccountClass, "%q", a.Class)
	}
	if a.Type != "" && !ValidType(a.Type) {
		return Invalid(ErrInvalidAccountType, "%q", a.Type)
	}
	return nil
}

// ClassLabel returns a human-readable label for a class.
func ClassLabel(class AccountClass) string {
	switch class {
	case ClassAsset:
		return "Assets"
	case ClassLiability:
		return "Liabilities"
	case ClassEquity:
		return "Equity"
	case ClassIncome:
		return "Income"
	case ClassExpense:
		return "Expenses"
	default:
		return "Unclassified"
	}
}

func ValidClass(class AccountClass) bool {
	for _, c := range AllClasses {
		if c == class {
			return true
		}
	}
	return false
}

func ValidType(t AccountType) bool {
	switch t {
	case TypeDebit, TypeCredit, TypeNeutral:
		return true
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders "code name" the way listings show accounts.
func (a Account) String() string {
	if a.Code == "" {
		return a.Name
	}
	return fmt.Sprintf("%s %s", a.Code, a.Name)
}
