package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

const periodColumns = `id, owner_id, start_date, end_date, status, closed_at, closed_by, notes, created_at`

// CreatePeriod stores a new open period. The overlap check and the insert
// share one write transaction, so two overlapping periods can never both be
// accepted.
func (s *Store) CreatePeriod(ctx context.Context, p *ledger.Period) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	p.StartDate = ledger.Day(p.StartDate)
	p.EndDate = ledger.Day(p.EndDate)
	p.Status = ledger.PeriodOpen
	p.ClosedAt = nil
	p.ClosedBy = ""
	p.CreatedAt = s.now()
	if err := p.Validate(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		conflicts, err := periodsWhere(ctx, tx,
			`owner_id = ? AND start_date <= ? AND end_date >= ? ORDER BY start_date`,
			p.OwnerID, formatDate(p.EndDate), formatDate(p.StartDate))
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ledger.OverlapError(conflicts)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO periods (`+periodColumns+`) VALUES (?, ?, ?, ?, ?, NULL, '', ?, ?)`,
			p.ID, p.OwnerID, formatDate(p.StartDate), formatDate(p.EndDate), string(p.Status),
			p.Notes, formatTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert period: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, p.OwnerID)
	return nil
}

func (s *Store) GetPeriod(ctx context.Context, ownerID, id string) (*ledger.Period, error) {
	return getPeriod(ctx, s.reader, ownerID, id)
}

func (s *Store) ListPeriods(ctx context.Context, ownerID string) ([]ledger.Period, error) {
	return periodsWhere(ctx, s.reader, `owner_id = ? ORDER BY start_date`, ownerID)
}

// ClosePeriod moves an open period to closed. The status update is a
// compare-and-set so a concurrent close is reported as a conflict.
func (s *Store) ClosePeriod(ctx context.Context, ownerID, id, by string) (*ledger.Period, error) {
	return s.setPeriodStatus(ctx, ownerID, id, func(p *ledger.Period) error {
		return p.Close(by, s.now())
	})
}

// ReopenPeriod moves a closed period back to open.
func (s *Store) ReopenPeriod(ctx context.Context, ownerID, id string) (*ledger.Period, error) {
	return s.setPeriodStatus(ctx, ownerID, id, func(p *ledger.Period) error {
		return p.Reopen()
	})
}

func (s *Store) setPeriodStatus(ctx context.Context, ownerID, id string, apply func(p *ledger.Period) error) (*ledger.Period, error) {
	var out *ledger.Period
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPeriod(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		prev := p.Status
		if err := apply(p); err != nil {
			return err
		}
		var closedAt any
		if p.ClosedAt != nil {
			closedAt = formatTime(*p.ClosedAt)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE periods SET status = ?, closed_at = ?, closed_by = ? WHERE owner_id = ? AND id = ? AND status = ?`,
			string(p.Status), closedAt, p.ClosedBy, ownerID, id, string(prev))
		if err != nil {
			return fmt.Errorf("update period: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &ledger.StateConflictError{Entity: "period " + id, State: string(prev)}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, ownerID)
	return out, nil
}

// DeletePeriod removes an open period. Closing entries keep their period id
// as a plain reference.
func (s *Store) DeletePeriod(ctx context.Context, ownerID, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPeriod(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := p.CanDelete(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM periods WHERE owner_id = ? AND id = ? AND status = 'open'`, ownerID, id); err != nil {
			return fmt.Errorf("delete period: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, ownerID)
	return nil
}

// CreateClosingEntries stores the closing entries of a period in one write
// transaction. The period must still be open and must not have been closed
// out before.
func (s *Store) CreateClosingEntries(ctx context.Context, ownerID, periodID string, entries []ledger.Transaction) ([]ledger.Transaction, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPeriod(ctx, tx, ownerID, periodID)
		if err != nil {
			return err
		}
		if p.Status != ledger.PeriodOpen {
			return &ledger.StateConflictError{Entity: "period " + periodID, State: string(p.Status), Want: string(ledger.PeriodOpen)}
		}
		n, err := countClosing(ctx, tx, ownerID, periodID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: period %s has %d closing entries", ledger.ErrClosingExists, periodID, n)
		}
		for i := range entries {
			t := &entries[i]
			t.OwnerID = ownerID
			t.ClosingPeriodID = periodID
			s.prepare(t)
			if err := t.Validate(); err != nil {
				return err
			}
			if err := s.insertChecked(ctx, tx, t); err != nil {
				return err
			}
			if t.Status != ledger.StatusDraft {
				err := s.appendHistory(ctx, tx, t, []ledger.StatusChange{{
					From: ledger.StatusDraft, To: t.Status, ChangedBy: "system", Notes: "period closing",
				}})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, ownerID)
	return entries, nil
}

// ClosingEntries lists the closing entries recorded for a period.
func (s *Store) ClosingEntries(ctx context.Context, ownerID, periodID string) ([]ledger.Transaction, error) {
	return listWhere(ctx, s.reader, `owner_id = ? AND closing_period_id = ? ORDER BY date, id`, ownerID, periodID)
}

func countClosing(ctx context.Context, q querier, ownerID, periodID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner_id = ? AND closing_period_id = ?`, ownerID, periodID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count closing entries: %w", err)
	}
	return n, nil
}

// ensureDateOpen fails with ErrPeriodClosed when date falls inside one of
// the owner's closed periods.
func ensureDateOpen(ctx context.Context, q querier, ownerID string, date time.Time) error {
	var id, start, end string
	err := q.QueryRowContext(ctx,
		`SELECT id, start_date, end_date FROM periods
		 WHERE owner_id = ? AND status = 'closed' AND start_date <= ? AND end_date >= ? LIMIT 1`,
		ownerID, formatDate(date), formatDate(date)).Scan(&id, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check closed periods: %w", err)
	}
	return fmt.Errorf("%w: %s falls in period %s (%s to %s)",
		ledger.ErrPeriodClosed, formatDate(date), id, start, end)
}

func getPeriod(ctx context.Context, q querier, ownerID, id string) (*ledger.Period, error) {
	row := q.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM periods WHERE owner_id = ? AND id = ?`, ownerID, id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPeriodNotFound
	}
	return p, err
}

func periodsWhere(ctx context.Context, q querier, where string, args ...any) ([]ledger.Period, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var out []ledger.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPeriod(row rowScanner) (*ledger.Period, error) {
	var p ledger.Period
	var start, end, createdAt string
	var closedAt sql.NullString
	err := row.Scan(&p.ID, &p.OwnerID, &start, &end, &p.Status, &closedAt, &p.ClosedBy, &p.Notes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan period: %w", err)
	}
	p.StartDate = parseDate(start)
	p.EndDate = parseDate(end)
	p.CreatedAt = parseTime(createdAt)
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		p.ClosedAt = &t
	}
	return &p, nil
}
