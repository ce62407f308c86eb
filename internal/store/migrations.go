package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id              TEXT PRIMARY KEY,
			owner_id        TEXT NOT NULL,
			name            TEXT NOT NULL,
			code            TEXT NOT NULL DEFAULT '',
			class           TEXT NOT NULL DEFAULT '' CHECK (class IN ('','asset','liability','equity','income','expense')),
			type            TEXT NOT NULL DEFAULT '' CHECK (type IN ('','debit','credit','neutral')),
			is_open         INTEGER NOT NULL DEFAULT 1,
			is_read_only    INTEGER NOT NULL DEFAULT 0,
			opening_balance INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_owner_code ON accounts(owner_id, code) WHERE code <> ''`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id                TEXT PRIMARY KEY,
			owner_id          TEXT NOT NULL,
			date              TEXT NOT NULL,
			amount            INTEGER NOT NULL,
			payee             TEXT NOT NULL DEFAULT '',
			customer_id       TEXT NOT NULL DEFAULT '',
			notes             TEXT NOT NULL DEFAULT '',
			tags              TEXT NOT NULL DEFAULT '[]',
			account_id        TEXT NOT NULL DEFAULT '',
			debit_account_id  TEXT NOT NULL DEFAULT '',
			credit_account_id TEXT NOT NULL DEFAULT '',
			status            TEXT NOT NULL CHECK (status IN ('draft','pending','completed','reconciled')),
			split_group_id    TEXT NOT NULL DEFAULT '',
			split_type        TEXT NOT NULL DEFAULT '' CHECK (split_type IN ('','parent','child')),
			closing_period_id TEXT NOT NULL DEFAULT '',
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_owner_date ON transactions(owner_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_split ON transactions(split_group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_closing ON transactions(closing_period_id)`,

		// Trigger: reconciled transactions cannot be deleted
		`CREATE TRIGGER IF NOT EXISTS trg_no_delete_reconciled
		BEFORE DELETE ON transactions
		WHEN OLD.status = 'reconciled'
		BEGIN
			SELECT RAISE(ABORT, 'cannot delete a reconciled transaction');
		END`,

		// Trigger: posting fields are frozen once completed
		`CREATE TRIGGER IF NOT EXISTS trg_locked_fields
		BEFORE UPDATE ON transactions
		WHEN OLD.status IN ('completed','reconciled') AND OLD.split_type <> 'parent' AND (
			NEW.date IS NOT OLD.date OR
			NEW.amount IS NOT OLD.amount OR
			NEW.account_id IS NOT OLD.account_id OR
			NEW.debit_account_id IS NOT OLD.debit_account_id OR
			NEW.credit_account_id IS NOT OLD.credit_account_id OR
			NEW.customer_id IS NOT OLD.customer_id)
		BEGIN
			SELECT RAISE(ABORT, 'locked fields of a completed transaction cannot change');
		END`,

		`CREATE TABLE IF NOT EXISTS status_history (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id       TEXT NOT NULL,
			transaction_id TEXT NOT NULL,
			from_status    TEXT NOT NULL,
			to_status      TEXT NOT NULL,
			changed_at     TEXT NOT NULL,
			changed_by     TEXT NOT NULL,
			notes          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_txn ON status_history(transaction_id)`,

		// Trigger: history is append-only
		`CREATE TRIGGER IF NOT EXISTS trg_status_history_update
		BEFORE UPDATE ON status_history
		BEGIN
			SELECT RAISE(ABORT, 'status history is append-only');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_status_history_delete
		BEFORE DELETE ON status_history
		BEGIN
			SELECT RAISE(ABORT, 'status history is append-only');
		END`,

		`CREATE TABLE IF NOT EXISTS periods (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date   TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','closed')),
			closed_at  TEXT,
			closed_by  TEXT NOT NULL DEFAULT '',
			notes      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			CHECK (start_date <= end_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_periods_owner ON periods(owner_id, start_date)`,

		`CREATE TABLE IF NOT EXISTS document_types (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			is_required INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id               TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL,
			transaction_id   TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			document_type_id TEXT NOT NULL REFERENCES document_types(id),
			name             TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_txn ON documents(transaction_id)`,

		`CREATE TABLE IF NOT EXISTS settings (
			owner_id                   TEXT PRIMARY KEY,
			double_entry_mode          INTEGER NOT NULL DEFAULT 1,
			auto_draft_to_pending      INTEGER NOT NULL DEFAULT 0,
			min_required_documents     INTEGER NOT NULL DEFAULT 0,
			required_document_type_ids TEXT NOT NULL DEFAULT '[]'
		)`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			head := stmt
			if len(head) > 60 {
				head = head[:60]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}
