package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/auth"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/tmdb"
)

// Catalog is the movie catalog as served to clients. *tmdb.CachedClient satisfies it.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Movie, error)
	GetMovie(ctx context.Context, id int64) (*tmdb.Movie, error)
	NowPlaying(ctx context.Context) ([]tmdb.Movie, error)
	TopRated(ctx context.Context) ([]tmdb.Movie, error)
	Trending(ctx context.Context, window string) ([]tmdb.Movie, error)
	Hero(ctx context.Context) ([]tmdb.Movie, error)
	Credits(ctx context.Context, id int64) (*tmdb.Credits, error)
	Videos(ctx context.Context, id int64) ([]tmdb.Video, error)
}

type MovieHandler struct {
	Catalog Catalog
	Social  *social.Service
	log     *log.Helper
}

func NewMovieHandler(c Catalog, s *social.Service, logger log.Logger) *MovieHandler {
	return &MovieHandler{Catalog: c, Social: s, log: log.NewHelper(log.With(logger, "module", "handlers/movies"))}
}

// Routes is mounted under /movies. All routes are public.
func (h *MovieHandler) Routes(r chi.Router) {
	r.Get("/search", h.search)
	r.Get("/now-playing", h.list(h.Catalog.NowPlaying))
	r.Get("/top-rated", h.list(h.Catalog.TopRated))
	r.Get("/hero", h.list(h.Catalog.Hero))
	r.Get("/trending", h.trending)
	r.Get("/{id}", h.get)
	r.Get("/{id}/credits", h.credits)
	r.Get("/{id}/videos", h.videos)
	r.Get("/{id}/reviews", h.reviews)
}

// AuthedRoutes is mounted under /movies behind the auth middleware.
func (h *MovieHandler) AuthedRoutes(r chi.Router) {
	r.Get("/{id}/my-review", h.myReview)
}

func (h *MovieHandler) upstream(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithContext(r.Context()).Warnf("tmdb: %v", err)
	writeMessage(w, http.StatusBadGateway, social.ErrUpstreamUnavailable.Error())
}

func (h *MovieHandler) search(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.SearchMovies(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.upstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) list(fetch func(context.Context) ([]tmdb.Movie, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fetch(r.Context())
		if err != nil {
			h.upstream(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *MovieHandler) trending(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Trending(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		h.upstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	mv, err := h.Catalog.GetMovie(r.Context(), id)
	if err != nil {
		h.upstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (h *MovieHandler) credits(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	res, err := h.Catalog.Credits(r.Context(), id)
	if err != nil {
		h.upstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) videos(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	res, err := h.Catalog.Videos(r.Context(), id)
	if err != nil {
		h.upstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	res, err := h.Social.ListMovieReviews(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MovieHandler) myReview(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	rv, err := h.Social.GetOwnReview(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}
