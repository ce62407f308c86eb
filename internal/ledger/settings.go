package ledger

// Settings are the per-owner switches that change validation and workflow.
type Settings struct {
	OwnerID            string `json:"owner_id"`
	DoubleEntryMode    bool   `json:"double_entry_mode"`
	AutoDraftToPending bool   `json:"auto_draft_to_pending"`
	// MinRequiredDocuments of zero means every required type must be attached.
	MinRequiredDocuments int `json:"min_required_documents"`
	// RequiredDocumentTypeIDs overrides the required flag on document types
	// when non-empty.
	RequiredDocumentTypeIDs []string `json:"required_document_type_ids"`
}

// DefaultSettings returns the settings used for an owner with no stored row.
func DefaultSettings(ownerID string) Settings {
	return Settings{
		OwnerID:                 ownerID,
		DoubleEntryMode:         true,
		RequiredDocumentTypeIDs: []string{},
	}
}

func (s Settings) Validate() error {
	if s.OwnerID == "" {
		return ErrMissingOwner
	}
	if s.MinRequiredDocuments < 0 {
		return Invalid(ErrInvalidSettings, "min_required_documents must not be negative")
	}
	return nil
}

// DocumentType is a kind of supporting document, such as a receipt.
type DocumentType struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	IsRequired bool   `json:"is_required"`
}

// Document records that a document of some type is attached to a
// transaction. The file itself lives elsewhere.
type Document struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	TransactionID  string `json:"transaction_id"`
	DocumentTypeID string `json:"document_type_id"`
	Name           string `json:"name"`
}
