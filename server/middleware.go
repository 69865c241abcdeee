package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/radarhk/radar/model"
)

type contextKey string

const ownerKey contextKey = "owner_id"

// requireAuth validates the bearer credential and stores the owner identity
// in the request context
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.respondError(w, r, model.ErrAuthRequired)
			return
		}

		ownerID, err := s.issuer.ValidateToken(token)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerID returns the authenticated owner for the request.
// Only valid behind requireAuth.
func ownerID(r *http.Request) int64 {
	id, _ := r.Context().Value(ownerKey).(int64)
	return id
}
