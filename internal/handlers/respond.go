package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain error kinds to HTTP status codes. Unexpected
// errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Helper, err error) {
	var invalid *social.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": invalid.Fields})
	case errors.Is(err, social.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, social.ErrDuplicateReview),
		errors.Is(err, social.ErrAlreadyWishlisted),
		errors.Is(err, social.ErrAlreadyFollowing):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, social.ErrNotFoundOrForbidden), errors.Is(err, social.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, social.ErrUpstreamUnavailable):
		logger.WithContext(r.Context()).Warnf("request %s: %v", middleware.GetReqID(r.Context()), err)
		writeMessage(w, http.StatusBadGateway, social.ErrUpstreamUnavailable.Error())
	case errors.Is(err, social.ErrStoreUnavailable):
		logger.WithContext(r.Context()).Errorf("request %s: %v", middleware.GetReqID(r.Context()), err)
		writeMessage(w, http.StatusServiceUnavailable, social.ErrStoreUnavailable.Error())
	default:
		logger.WithContext(r.Context()).Errorf("request %s: %v", middleware.GetReqID(r.Context()), err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func movieID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
