package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/auth"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
)

type ReviewHandler struct {
	Social *social.Service
	log    *log.Helper
}

func NewReviewHandler(s *social.Service, logger log.Logger) *ReviewHandler {
	return &ReviewHandler{Social: s, log: log.NewHelper(log.With(logger, "module", "handlers/reviews"))}
}

// Routes is mounted under /reviews behind the auth middleware.
func (h *ReviewHandler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	var in social.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	rv, err := h.Social.CreateReview(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ReviewHandler) update(w http.ResponseWriter, r *http.Request) {
	var in social.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	rv, err := h.Social.UpdateReview(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// delete takes the movie id as ?tmdb_id= so callers can refresh that movie's page.
func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	tmdbID, _ := strconv.ParseInt(r.URL.Query().Get("tmdb_id"), 10, 64)
	if err := h.Social.DeleteReview(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), tmdbID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
