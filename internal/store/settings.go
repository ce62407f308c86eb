package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/simonvc/bookkeeper/internal/ledger"
)

// GetSettings returns the stored settings of an owner, or the defaults when
// none have been saved.
func (s *Store) GetSettings(ctx context.Context, ownerID string) (ledger.Settings, error) {
	st := ledger.DefaultSettings(ownerID)

	var doubleEntry, autoPromote int
	var required string
	err := s.reader.QueryRowContext(ctx,
		`SELECT double_entry_mode, auto_draft_to_pending, min_required_documents, required_document_type_ids
		 FROM settings WHERE owner_id = ?`, ownerID,
	).Scan(&doubleEntry, &autoPromote, &st.MinRequiredDocuments, &required)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("get settings: %w", err)
	}
	st.DoubleEntryMode = doubleEntry == 1
	st.AutoDraftToPending = autoPromote == 1
	if err := json.Unmarshal([]byte(required), &st.RequiredDocumentTypeIDs); err != nil {
		return st, fmt.Errorf("decode required document types: %w", err)
	}
	if st.RequiredDocumentTypeIDs == nil {
		st.RequiredDocumentTypeIDs = []string{}
	}
	return st, nil
}

func (s *Store) PutSettings(ctx context.Context, st ledger.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	ids := st.RequiredDocumentTypeIDs
	if ids == nil {
		ids = []string{}
	}
	required, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode required document types: %w", err)
	}
	_, err = s.writer.ExecContext(ctx,
		`INSERT INTO settings (owner_id, double_entry_mode, auto_draft_to_pending, min_required_documents, required_document_type_ids)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   double_entry_mode = excluded.double_entry_mode,
		   auto_draft_to_pending = excluded.auto_draft_to_pending,
		   min_required_documents = excluded.min_required_documents,
		   required_document_type_ids = excluded.required_document_type_ids`,
		st.OwnerID, boolToInt(st.DoubleEntryMode), boolToInt(st.AutoDraftToPending),
		st.MinRequiredDocuments, string(required))
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	s.changed(ctx, st.OwnerID)
	return nil
}
