package social

import (
	"context"
	"errors"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
)

func (s *Service) AddToWishlist(ctx context.Context, userID string, tmdbID int64) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if tmdbID <= 0 {
		return invalid("tmdb_id", "must be > 0")
	}

	sctx, cancel := s.storeCtx(ctx)
	exists, err := s.repo.WishlistExists(sctx, userID, tmdbID)
	cancel()
	if err != nil {
		return storeFailure("check wishlist", err)
	}
	if exists {
		return ErrAlreadyWishlisted
	}

	if _, err := s.EnsureMovieCached(ctx, tmdbID); err != nil {
		return err
	}

	sctx, cancel = s.storeCtx(ctx)
	defer cancel()
	err = s.repo.AddWishlist(sctx, &models.Wishlist{
		UserID:    userID,
		TMDBID:    tmdbID,
		Status:    models.WishlistStatusWant,
		CreatedAt: s.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return ErrAlreadyWishlisted
	}
	if err != nil {
		return storeFailure("add wishlist", err)
	}
	return nil
}

// RemoveFromWishlist succeeds whether or not the entry existed.
func (s *Service) RemoveFromWishlist(ctx context.Context, userID string, tmdbID int64) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.RemoveWishlist(sctx, userID, tmdbID); err != nil {
		return storeFailure("remove wishlist", err)
	}
	return nil
}

// IsWishlisted is always false for anonymous callers.
func (s *Service) IsWishlisted(ctx context.Context, userID string, tmdbID int64) (bool, error) {
	if userID == "" {
		return false, nil
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	ok, err := s.repo.WishlistExists(sctx, userID, tmdbID)
	if err != nil {
		return false, storeFailure("check wishlist", err)
	}
	return ok, nil
}

// ListWishlist returns userID's own wishlist, newest first.
func (s *Service) ListWishlist(ctx context.Context, userID string, limit int) ([]models.WishlistView, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.repo.ListWishlistByUser(sctx, userID, limit)
	if err != nil {
		return nil, storeFailure("list wishlist", err)
	}
	return out, nil
}
