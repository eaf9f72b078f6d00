package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
)

// Authenticator provides the required and optional auth middlewares.
// *auth.SupabaseVerifier satisfies it.
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
	Optional(next http.Handler) http.Handler
}

type API struct {
	Movies   *MovieHandler
	Reviews  *ReviewHandler
	Wishlist *WishlistHandler
	Users    *UserHandler
}

func NewAPI(c Catalog, s *social.Service, logger log.Logger) *API {
	return &API{
		Movies:   NewMovieHandler(c, s, logger),
		Reviews:  NewReviewHandler(s, logger),
		Wishlist: NewWishlistHandler(s, logger),
		Users:    NewUserHandler(s, logger),
	}
}

// Mount returns the /v1 route tree.
func (a *API) Mount(authn Authenticator) func(r chi.Router) {
	return func(r chi.Router) {
		// Public routes
		r.Route("/movies", func(r chi.Router) {
			a.Movies.Routes(r)
			r.Group(func(r chi.Router) {
				r.Use(authn.Middleware)
				a.Movies.AuthedRoutes(r)
			})
		})
		r.With(authn.Optional).Route("/users", a.Users.Routes)

		// Authed routes
		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)
			r.Get("/me", a.Users.Me)
			r.Patch("/me", a.Users.UpdateMe)
			r.Get("/me/wishlist", a.Wishlist.Mine)
			r.Get("/timeline", a.Users.Timeline)
			r.Route("/reviews", a.Reviews.Routes)
			r.Route("/wishlist", a.Wishlist.Routes)
			r.Route("/follows", a.Users.FollowRoutes)
		})
	}
}
