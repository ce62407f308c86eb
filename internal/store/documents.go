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

func (s *Store) CreateDocumentType(ctx context.Context, dt *ledger.DocumentType) error {
	if dt.OwnerID == "" {
		return ledger.ErrMissingOwner
	}
	if strings.TrimSpace(dt.Name) == "" {
		return ledger.Invalid(ledger.ErrInvalidSettings, "document type needs a name")
	}
	if dt.ID == "" {
		dt.ID = uuid.Must(uuid.NewV7()).String()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO document_types (id, owner_id, name, is_required) VALUES (?, ?, ?, ?)`,
		dt.ID, dt.OwnerID, dt.Name, boolToInt(dt.IsRequired))
	if err != nil {
		return fmt.Errorf("insert document type: %w", err)
	}
	s.changed(ctx, dt.OwnerID)
	return nil
}

func (s *Store) ListDocumentTypes(ctx context.Context, ownerID string) ([]ledger.DocumentType, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, owner_id, name, is_required FROM document_types WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()

	var out []ledger.DocumentType
	for rows.Next() {
		var dt ledger.DocumentType
		var required int
		if err := rows.Scan(&dt.ID, &dt.OwnerID, &dt.Name, &required); err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		dt.IsRequired = required == 1
		out = append(out, dt)
	}
	return out, rows.Err()
}

// AttachDocument records a document against a transaction. Attaching is
// allowed in every status, including reconciled.
func (s *Store) AttachDocument(ctx context.Context, doc *ledger.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.Must(uuid.NewV7()).String()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getTransaction(ctx, tx, doc.OwnerID, doc.TransactionID); err != nil {
			return err
		}
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM document_types WHERE owner_id = ? AND id = ?`, doc.OwnerID, doc.DocumentTypeID).Scan(&n)
		if err != nil {
			return fmt.Errorf("check document type: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ledger.ErrDocumentTypeNotFound, doc.DocumentTypeID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, owner_id, transaction_id, document_type_id, name) VALUES (?, ?, ?, ?, ?)`,
			doc.ID, doc.OwnerID, doc.TransactionID, doc.DocumentTypeID, doc.Name)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, doc.OwnerID)
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, ownerID, txnID string) ([]ledger.Document, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, owner_id, transaction_id, document_type_id, name FROM documents
		 WHERE owner_id = ? AND transaction_id = ? ORDER BY created_at, id`, ownerID, txnID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []ledger.Document
	for rows.Next() {
		var d ledger.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.TransactionID, &d.DocumentTypeID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DetachDocument(ctx context.Context, ownerID, id string) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM documents WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, sql.ErrNoRows)
	}
	s.changed(ctx, ownerID)
	return nil
}

// DocumentRequirement counts the required document types for the owner and
// how many of them have at least one document attached to the transaction.
// The settings list of required types wins over the per-type flag when it is
// not empty.
func (s *Store) DocumentRequirement(ctx context.Context, ownerID, txnID string, settings ledger.Settings) (ledger.DocumentRequirement, error) {
	req := ledger.DocumentRequirement{Minimum: settings.MinRequiredDocuments}

	required := map[string]bool{}
	if len(settings.RequiredDocumentTypeIDs) > 0 {
		for _, id := range settings.RequiredDocumentTypeIDs {
			required[id] = true
		}
	} else {
		types, err := s.ListDocumentTypes(ctx, ownerID)
		if err != nil {
			return req, err
		}
		for _, dt := range types {
			if dt.IsRequired {
				required[dt.ID] = true
			}
		}
	}
	req.Required = len(required)
	if req.Required == 0 {
		return req, nil
	}

	docs, err := s.ListDocuments(ctx, ownerID, txnID)
	if err != nil {
		return req, err
	}
	seen := map[string]bool{}
	for _, d := range docs {
		if required[d.DocumentTypeID] && !seen[d.DocumentTypeID] {
			seen[d.DocumentTypeID] = true
			req.Attached++
		}
	}
	return req, nil
}

// IsNotFound reports whether err means a row was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ledger.ErrAccountNotFound) ||
		errors.Is(err, ledger.ErrTransactionNotFound) ||
		errors.Is(err, ledger.ErrPeriodNotFound) ||
		errors.Is(err, ledger.ErrDocumentTypeNotFound)
}
