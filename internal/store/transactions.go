package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

const txnColumns = `id, owner_id, date, amount, payee, customer_id, notes, tags, account_id,
	debit_account_id, credit_account_id, status, split_group_id, split_type, closing_period_id,
	created_at, updated_at`

// CreateTransaction stores a new transaction. The closed-period and account
// checks run in the same write transaction as the insert. Status changes
// applied on save, such as auto promotion, are passed as history rows.
func (s *Store) CreateTransaction(ctx context.Context, txn *ledger.Transaction, changes ...ledger.StatusChange) error {
	s.prepare(txn)
	if err := txn.Validate(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertChecked(ctx, tx, txn); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, txn, changes)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, txn.OwnerID)
	return nil
}

// CreateSplit stores a parent and its children as one group. The parent
// amount is derived from the children.
func (s *Store) CreateSplit(ctx context.Context, parent *ledger.Transaction, children []*ledger.Transaction) error {
	s.prepare(parent)
	if err := ledger.SplitGroup(parent.ID, parent, children); err != nil {
		return err
	}
	for _, c := range children {
		s.prepare(c)
		c.OwnerID = parent.OwnerID
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range append([]*ledger.Transaction{parent}, children...) {
			if err := t.Validate(); err != nil {
				return err
			}
			if err := s.insertChecked(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, parent.OwnerID)
	return nil
}

// UpdateTransaction applies an edit. Locked fields are rejected, the old and
// new dates must both lie outside closed periods, and optional status changes
// are applied in the same write transaction.
func (s *Store) UpdateTransaction(ctx context.Context, next *ledger.Transaction, changes ...ledger.StatusChange) error {
	next.Date = ledger.Day(next.Date)
	if err := next.Validate(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTransaction(ctx, tx, next.OwnerID, next.ID)
		if err != nil {
			return err
		}
		if err := ledger.CheckEdit(prev, next); err != nil {
			return err
		}
		if err := ensureDateOpen(ctx, tx, prev.OwnerID, prev.Date); err != nil {
			return err
		}
		if err := ensureDateOpen(ctx, tx, next.OwnerID, next.Date); err != nil {
			return err
		}
		next.SplitType = prev.SplitType
		next.ClosingPeriodID = prev.ClosingPeriodID
		if !prev.Locked() || prev.AccountsChanged(next) {
			if err := checkAccounts(ctx, tx, next); err != nil {
				return err
			}
		}
		if next.SplitType == ledger.SplitChild {
			if err := checkSplitParent(ctx, tx, prev, next); err != nil {
				return err
			}
		}

		next.CreatedAt = prev.CreatedAt
		next.SplitGroupID = prev.SplitGroupID
		next.UpdatedAt = s.now()
		if len(changes) > 0 {
			if changes[0].From != prev.Status {
				return &ledger.StateConflictError{Entity: "transaction " + prev.ID, State: string(prev.Status), Want: string(changes[0].From)}
			}
			next.Status = changes[len(changes)-1].To
		}

		tags, err := json.Marshal(tagsOrEmpty(next.Tags))
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET date = ?, amount = ?, payee = ?, customer_id = ?, notes = ?, tags = ?,
			 account_id = ?, debit_account_id = ?, credit_account_id = ?, status = ?, updated_at = ?
			 WHERE owner_id = ? AND id = ?`,
			formatDate(next.Date), next.Amount, next.Payee, next.CustomerID, next.Notes, string(tags),
			next.AccountID, next.DebitAccountID, next.CreditAccountID, string(next.Status), formatTime(next.UpdatedAt),
			next.OwnerID, next.ID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if next.SplitType == ledger.SplitChild {
			if err := resumSplit(ctx, tx, next.OwnerID, next.SplitGroupID); err != nil {
				return err
			}
		}
		return s.appendHistory(ctx, tx, next, changes)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, next.OwnerID)
	return nil
}

// DeleteTransaction removes a transaction. Reconciled transactions and
// transactions dated inside a closed period cannot be deleted. Deleting a
// split parent removes the whole group.
func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTransaction(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		group := []*ledger.Transaction{prev}
		if prev.SplitType == ledger.SplitParent {
			children, err := listWhere(ctx, tx, `owner_id = ? AND split_group_id = ? AND split_type = 'child'`, ownerID, prev.SplitGroupID)
			if err != nil {
				return err
			}
			for i := range children {
				group = append(group, &children[i])
			}
		}
		for _, t := range group {
			if err := t.CanDelete(); err != nil {
				return err
			}
			if err := ensureDateOpen(ctx, tx, ownerID, t.Date); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, t.ID); err != nil {
				return fmt.Errorf("delete transaction %s: %w", t.ID, err)
			}
		}
		if prev.SplitType == ledger.SplitChild {
			return resumSplit(ctx, tx, ownerID, prev.SplitGroupID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, ownerID)
	return nil
}

// TransitionStatus moves a transaction from expected to next. The update is
// a compare-and-set on the current status; a concurrent change makes it fail
// with a StateConflictError instead of overwriting.
func (s *Store) TransitionStatus(ctx context.Context, ownerID, id string, expected, next ledger.Status, by, notes string) (*ledger.Transaction, error) {
	var out *ledger.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTransaction(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := ensureDateOpen(ctx, tx, ownerID, prev.Date); err != nil {
			return err
		}
		now := s.now()
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, updated_at = ? WHERE owner_id = ? AND id = ? AND status = ?`,
			string(next), formatTime(now), ownerID, id, string(expected))
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &ledger.StateConflictError{Entity: "transaction " + id, State: string(prev.Status), Want: string(expected)}
		}
		prev.Status = next
		prev.UpdatedAt = now
		out = prev
		return s.appendHistory(ctx, tx, prev, []ledger.StatusChange{{From: expected, To: next, ChangedBy: by, Notes: notes}})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, ownerID)
	return out, nil
}

func (s *Store) History(ctx context.Context, ownerID, id string) ([]ledger.StatusChange, error) {
	if _, err := getTransaction(ctx, s.reader, ownerID, id); err != nil {
		return nil, err
	}
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, transaction_id, from_status, to_status, changed_at, changed_by, notes
		 FROM status_history WHERE owner_id = ? AND transaction_id = ? ORDER BY id`, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []ledger.StatusChange
	for rows.Next() {
		var c ledger.StatusChange
		var changedAt string
		if err := rows.Scan(&c.ID, &c.TransactionID, &c.From, &c.To, &changedAt, &c.ChangedBy, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		c.ChangedAt = parseTime(changedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (*ledger.Transaction, error) {
	return getTransaction(ctx, s.reader, ownerID, id)
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string, filter TxnFilter) ([]ledger.Transaction, error) {
	where := `owner_id = ?`
	args := []any{ownerID}

	if filter.AccountID != "" {
		where += ` AND (account_id = ? OR debit_account_id = ? OR credit_account_id = ?)`
		args = append(args, filter.AccountID, filter.AccountID, filter.AccountID)
	}
	if !filter.Range.From.IsZero() {
		where += ` AND date >= ?`
		args = append(args, formatDate(filter.Range.From))
	}
	if !filter.Range.To.IsZero() {
		where += ` AND date <= ?`
		args = append(args, formatDate(filter.Range.To))
	}
	switch {
	case filter.Status != "":
		where += ` AND status = ?`
		args = append(args, string(filter.Status))
	case !filter.IncludeDrafts:
		where += ` AND status <> 'draft'`
	}

	where += ` ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		where += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			where += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}
	return listWhere(ctx, s.reader, where, args...)
}

func (s *Store) prepare(txn *ledger.Transaction) {
	if txn.ID == "" {
		txn.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := s.now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	txn.Date = ledger.Day(txn.Date)
}

func (s *Store) insertChecked(ctx context.Context, tx *sql.Tx, txn *ledger.Transaction) error {
	if err := ensureDateOpen(ctx, tx, txn.OwnerID, txn.Date); err != nil {
		return err
	}
	if err := checkAccounts(ctx, tx, txn); err != nil {
		return err
	}
	return insertTransaction(ctx, tx, txn)
}

func insertTransaction(ctx context.Context, q querier, txn *ledger.Transaction) error {
	tags, err := json.Marshal(tagsOrEmpty(txn.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO transactions (`+txnColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.OwnerID, formatDate(txn.Date), txn.Amount, txn.Payee, txn.CustomerID, txn.Notes, string(tags),
		txn.AccountID, txn.DebitAccountID, txn.CreditAccountID, string(txn.Status), txn.SplitGroupID,
		string(txn.SplitType), txn.ClosingPeriodID, formatTime(txn.CreatedAt), formatTime(txn.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) appendHistory(ctx context.Context, q querier, txn *ledger.Transaction, changes []ledger.StatusChange) error {
	for _, c := range changes {
		at := c.ChangedAt
		if at.IsZero() {
			at = s.now()
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO status_history (owner_id, transaction_id, from_status, to_status, changed_at, changed_by, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			txn.OwnerID, txn.ID, string(c.From), string(c.To), formatTime(at), c.ChangedBy, c.Notes)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

// checkAccounts verifies that every referenced account exists for the owner,
// is open, and accepts postings on the side it is used.
func checkAccounts(ctx context.Context, q querier, txn *ledger.Transaction) error {
	accounts := make(map[string]*ledger.Account)
	for _, id := range txn.AccountIDs() {
		acct, err := getAccount(ctx, q, txn.OwnerID, id)
		if err != nil {
			return fmt.Errorf("%w: %s", err, id)
		}
		accounts[id] = acct
	}
	if txn.SplitType == ledger.SplitParent {
		return nil
	}
	for id, acct := range accounts {
		if acct.IsReadOnly {
			return fmt.Errorf("%w: %s", ledger.ErrAccountReadOnly, id)
		}
		if !acct.IsOpen {
			return fmt.Errorf("%w: %s", ledger.ErrAccountClosed, id)
		}
	}
	// Closing entries move a balance off its normal side to zero it.
	if txn.ClosingPeriodID != "" {
		return nil
	}
	// Check sides as the transaction will post once it leaves draft.
	posted := *txn
	posted.Status = ledger.StatusCompleted
	for _, p := range posted.Postings() {
		if !accounts[p.AccountID].AllowsSide(p.Side) {
			return fmt.Errorf("%w: %s is %s-only", ledger.ErrSideNotAllowed, p.AccountID, accounts[p.AccountID].Type)
		}
	}
	return nil
}

// checkSplitParent applies the parent's own guards to a child edit that
// would change the parent's derived amount.
func checkSplitParent(ctx context.Context, q querier, prev, next *ledger.Transaction) error {
	if prev.Amount == next.Amount {
		return nil
	}
	var parentID string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM transactions WHERE owner_id = ? AND split_group_id = ? AND split_type = 'parent'`,
		prev.OwnerID, prev.SplitGroupID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load split parent: %w", err)
	}
	parent, err := getTransaction(ctx, q, prev.OwnerID, parentID)
	if err != nil {
		return err
	}
	if parent.Locked() {
		return ledger.Invalid(ledger.ErrFieldLocked, "amount of split %s cannot change once %s", parent.ID, parent.Status)
	}
	return ensureDateOpen(ctx, q, parent.OwnerID, parent.Date)
}

// resumSplit keeps a split parent equal to the sum of its children.
func resumSplit(ctx context.Context, q querier, ownerID, groupID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE transactions SET amount = (
			SELECT COALESCE(SUM(amount), 0) FROM transactions
			WHERE owner_id = ? AND split_group_id = ? AND split_type = 'child')
		 WHERE owner_id = ? AND split_group_id = ? AND split_type = 'parent'`,
		ownerID, groupID, ownerID, groupID)
	if err != nil {
		return fmt.Errorf("update split parent: %w", err)
	}
	return nil
}

func getTransaction(ctx context.Context, q querier, ownerID, id string) (*ledger.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrTransactionNotFound
	}
	return txn, err
}

func listWhere(ctx context.Context, q querier, where string, args ...any) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *txn)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var date, tags, createdAt, updatedAt string
	err := row.Scan(&txn.ID, &txn.OwnerID, &date, &txn.Amount, &txn.Payee, &txn.CustomerID, &txn.Notes, &tags,
		&txn.AccountID, &txn.DebitAccountID, &txn.CreditAccountID, &txn.Status, &txn.SplitGroupID,
		&txn.SplitType, &txn.ClosingPeriodID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	txn.Date = parseDate(date)
	txn.CreatedAt = parseTime(createdAt)
	txn.UpdatedAt = parseTime(updatedAt)
	if strings.TrimSpace(tags) != "" {
		if err := json.Unmarshal([]byte(tags), &txn.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if len(txn.Tags) == 0 {
		txn.Tags = nil
	}
	return &txn, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
