package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/auth"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
)

type UserHandler struct {
	Social *social.Service
	log    *log.Helper
}

func NewUserHandler(s *social.Service, logger log.Logger) *UserHandler {
	return &UserHandler{Social: s, log: log.NewHelper(log.With(logger, "module", "handlers/users"))}
}

// Routes is mounted under /users with optional auth.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/search", h.search)
	r.Get("/{id}", h.profile)
	r.Get("/{id}/following", h.following)
	r.Get("/{id}/followers", h.followers)
}

// Me returns the caller's profile, creating it on first contact.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.Social.EnsureProfile(r.Context(), auth.UserID(r.Context()), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var in social.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	uid := auth.UserID(r.Context())
	p, err := h.Social.UpdateProfile(r.Context(), uid, uid, in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	items, err := h.Social.GetTimeline(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *UserHandler) search(w http.ResponseWriter, r *http.Request) {
	res, err := h.Social.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	v, err := h.Social.GetProfileView(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *UserHandler) following(w http.ResponseWriter, r *http.Request) {
	res, err := h.Social.ListFollowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) followers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Social.ListFollowers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FollowRoutes is mounted under /follows behind the auth middleware.
func (h *UserHandler) FollowRoutes(r chi.Router) {
	r.Put("/{userId}", h.follow)
	r.Delete("/{userId}", h.unfollow)
}

func (h *UserHandler) follow(w http.ResponseWriter, r *http.Request) {
	if err := h.Social.Follow(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "userId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.Social.Unfollow(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "userId")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
