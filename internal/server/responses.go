package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type errorResponse struct {
	Error     string          `json:"error"`
	State     string          `json:"state,omitempty"`
	Conflicts []ledger.Period `json:"conflicts,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func mapError(err error) int {
	var sc *ledger.StateConflictError
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &sc):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrPeriodNotFound),
		errors.Is(err, ledger.ErrDocumentTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrAccountInUse),
		errors.Is(err, ledger.ErrPeriodClosed),
		errors.Is(err, ledger.ErrClosingExists):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrAccountReadOnly),
		errors.Is(err, ledger.ErrAccountClosed),
		errors.Is(err, ledger.ErrSideNotAllowed),
		errors.Is(err, ledger.ErrMissingOwner):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status mapError picks. Server errors are logged
// and their text is not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("route", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	resp := errorResponse{Error: err.Error()}
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		resp.Conflicts = ve.Conflicts
	}
	var sc *ledger.StateConflictError
	if errors.As(err, &sc) {
		resp.State = sc.State
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into v and runs the struct validation tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, describeValidation(err))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", f.Field(), f.Tag(), f.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", f.Field(), f.Tag()))
		}
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}
