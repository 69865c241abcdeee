package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/radarhk/radar/model"
)

// detailResponse is the body of every error response
type detailResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps the error taxonomy onto HTTP statuses
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnfurl):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrResolverUnavailable), errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailForError picks the user-facing message: the sentinel text when the
// error belongs to the taxonomy, the full error otherwise
func detailForError(err error) string {
	for _, sentinel := range []error{
		model.ErrAuthRequired,
		model.ErrNotFound,
		model.ErrDuplicateKey,
		model.ErrUnfurl,
		model.ErrResolverUnavailable,
		model.ErrStorageUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	} else {
		s.log.Warn("Request rejected", slog.String("path", r.URL.Path), slog.Int("status", status), slog.String("error", err.Error()))
	}
	respondJSON(w, status, detailResponse{Detail: detailForError(err)})
}
