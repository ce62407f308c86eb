package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

const accountColumns = `id, owner_id, name, code, class, type, is_open, is_read_only, opening_balance, created_at`

func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.Must(uuid.NewV7()).String()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = s.now()
	}
	if err := acct.Validate(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertAccount(ctx, tx, acct)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, acct.OwnerID)
	return nil
}

func insertAccount(ctx context.Context, q querier, acct *ledger.Account) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.OwnerID, acct.Name, acct.Code, string(acct.Class), string(acct.Type),
		boolToInt(acct.IsOpen), boolToInt(acct.IsReadOnly), acct.OpeningBalance, formatTime(acct.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: code %s", ledger.ErrDuplicateAccount, acct.Code)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, ownerID, id string) (*ledger.Account, error) {
	return getAccount(ctx, s.reader, ownerID, id)
}

func getAccount(ctx context.Context, q querier, ownerID, id string) (*ledger.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, ownerID string, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.Class != "" {
		query += ` AND class = ?`
		args = append(args, string(filter.Class))
	}
	if !filter.IncludeClosed {
		query += ` AND is_open = 1`
	}

	query += ` ORDER BY code = '', code, name`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// UpdateAccount rewrites the mutable fields of an account. An account with
// postings cannot become read-only.
func (s *Store) UpdateAccount(ctx context.Context, acct *ledger.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getAccount(ctx, tx, acct.OwnerID, acct.ID)
		if err != nil {
			return err
		}
		if acct.IsReadOnly && !prev.IsReadOnly {
			n, err := countReferences(ctx, tx, acct.OwnerID, acct.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %s is referenced by %d transactions", ledger.ErrAccountInUse, acct.ID, n)
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, code = ?, class = ?, type = ?, is_open = ?, is_read_only = ?, opening_balance = ?
			 WHERE owner_id = ? AND id = ?`,
			acct.Name, acct.Code, string(acct.Class), string(acct.Type), boolToInt(acct.IsOpen),
			boolToInt(acct.IsReadOnly), acct.OpeningBalance, acct.OwnerID, acct.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: code %s", ledger.ErrDuplicateAccount, acct.Code)
			}
			return fmt.Errorf("update account: %w", err)
		}
		acct.CreatedAt = prev.CreatedAt
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, acct.OwnerID)
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, ownerID, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getAccount(ctx, tx, ownerID, id); err != nil {
			return err
		}
		// Refuse if any transaction references the account
		n, err := countReferences(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s is referenced by %d transactions", ledger.ErrAccountInUse, id, n)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE owner_id = ? AND id = ?`, ownerID, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, ownerID)
	return nil
}

// SeedChart creates the default chart for an owner, skipping codes that
// already exist. It returns the accounts it created.
func (s *Store) SeedChart(ctx context.Context, ownerID string) ([]ledger.Account, error) {
	var created []ledger.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, acct := range ledger.ChartAccounts(ownerID) {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM accounts WHERE owner_id = ? AND code = ?`, ownerID, acct.Code).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check code %s: %w", acct.Code, err)
			}
			if exists > 0 {
				continue
			}
			acct.ID = uuid.Must(uuid.NewV7()).String()
			acct.CreatedAt = s.now()
			if err := insertAccount(ctx, tx, &acct); err != nil {
				return err
			}
			created = append(created, acct)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		s.changed(ctx, ownerID)
	}
	return created, nil
}

func countReferences(ctx context.Context, q querier, ownerID, id string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE owner_id = ? AND (account_id = ? OR debit_account_id = ? OR credit_account_id = ?)`,
		ownerID, id, id, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("check references: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var acct ledger.Account
	var isOpen, readOnly int
	var createdAt string
	err := row.Scan(&acct.ID, &acct.OwnerID, &acct.Name, &acct.Code, &acct.Class, &acct.Type,
		&isOpen, &readOnly, &acct.OpeningBalance, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.IsOpen = isOpen == 1
	acct.IsReadOnly = readOnly == 1
	acct.CreatedAt = parseTime(createdAt)
	return &acct, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
