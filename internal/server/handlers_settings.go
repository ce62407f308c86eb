package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

// settingsRequest leaves unset fields at their stored values.
type settingsRequest struct {
	DoubleEntryMode         *bool    `json:"double_entry_mode"`
	AutoDraftToPending      *bool    `json:"auto_draft_to_pending"`
	MinRequiredDocuments    *int     `json:"min_required_documents" validate:"omitempty,min=0"`
	RequiredDocumentTypeIDs []string `json:"required_document_type_ids" validate:"omitempty,dive,required"`
}

type documentTypeRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	IsRequired bool   `json:"is_required"`
}

type documentRequest struct {
	DocumentTypeID string `json:"document_type_id" validate:"required"`
	Name           string `json:"name" validate:"max=200"`
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetSettings(r.Context(), ownerFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := s.store.GetSettings(r.Context(), ownerFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.DoubleEntryMode != nil {
		st.DoubleEntryMode = *req.DoubleEntryMode
	}
	if req.AutoDraftToPending != nil {
		st.AutoDraftToPending = *req.AutoDraftToPending
	}
	if req.MinRequiredDocuments != nil {
		st.MinRequiredDocuments = *req.MinRequiredDocuments
	}
	if req.RequiredDocumentTypeIDs != nil {
		st.RequiredDocumentTypeIDs = req.RequiredDocumentTypeIDs
	}
	if err := s.store.PutSettings(r.Context(), st); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listDocumentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListDocumentTypes(r.Context(), ownerFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if types == nil {
		types = []ledger.DocumentType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) createDocumentType(w http.ResponseWriter, r *http.Request) {
	var req documentTypeRequest
	if !s.decode(w, r, &req) {
		return
	}
	dt := &ledger.DocumentType{OwnerID: ownerFrom(r), Name: req.Name, IsRequired: req.IsRequired}
	if err := s.store.CreateDocumentType(r.Context(), dt); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dt)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if docs == nil {
		docs = []ledger.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) attachDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !s.decode(w, r, &req) {
		return
	}
	doc := &ledger.Document{
		OwnerID:        ownerFrom(r),
		TransactionID:  chi.URLParam(r, "id"),
		DocumentTypeID: req.DocumentTypeID,
		Name:           req.Name,
	}
	if err := s.store.AttachDocument(r.Context(), doc); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// detachDocument only removes documents that belong to the transaction in
// the path.
func (s *Server) detachDocument(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	txnID, docID := chi.URLParam(r, "id"), chi.URLParam(r, "docID")
	docs, err := s.store.ListDocuments(r.Context(), owner, txnID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	found := false
	for _, d := range docs {
		if d.ID == docID {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err := s.store.DetachDocument(r.Context(), owner, docID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
