package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/auth"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
)

const homeWishlistLimit = 20

type WishlistHandler struct {
	Social *social.Service
	log    *log.Helper
}

func NewWishlistHandler(s *social.Service, logger log.Logger) *WishlistHandler {
	return &WishlistHandler{Social: s, log: log.NewHelper(log.With(logger, "module", "handlers/wishlist"))}
}

// Routes is mounted under /wishlist behind the auth middleware.
func (h *WishlistHandler) Routes(r chi.Router) {
	r.Get("/{tmdbId}", h.status)
	r.Put("/{tmdbId}", h.add)
	r.Delete("/{tmdbId}", h.remove)
}

func (h *WishlistHandler) add(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "tmdbId")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "tmdbId must be a positive integer")
		return
	}
	if err := h.Social.AddToWishlist(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "tmdbId")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "tmdbId must be a positive integer")
		return
	}
	if err := h.Social.RemoveFromWishlist(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandler) status(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "tmdbId")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "tmdbId must be a positive integer")
		return
	}
	in, err := h.Social.IsWishlisted(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"wishlisted": in})
}

// Mine serves GET /me/wishlist.
func (h *WishlistHandler) Mine(w http.ResponseWriter, r *http.Request) {
	limit := homeWishlistLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	res, err := h.Social.ListWishlist(r.Context(), auth.UserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
