package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/simonvc/bookkeeper/internal/observability"
)

const (
	ownerHeader = "X-Owner-ID"
	actorHeader = "X-Actor-ID"
)

type ctxKey int

const ownerKey ctxKey = iota

// requireOwner scopes the request to the owner named in X-Owner-ID.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(ownerHeader)
		if owner == "" {
			writeError(w, http.StatusBadRequest, "missing "+ownerHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}

// actorFrom names who made the change, falling back to the owner.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get(actorHeader); actor != "" {
		return actor
	}
	return ownerFrom(r)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := s.log.Debug()
		if status >= http.StatusInternalServerError {
			ev = s.log.Warn()
		}
		ev.Str("method", r.Method).
			Str("route", observability.RoutePattern(r)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("owner", r.Header.Get(ownerHeader)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
