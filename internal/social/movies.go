package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/tmdb"
)

// EnsureMovieCached returns the cached movie row for tmdbID, fetching it from
// the catalog and upserting it on first reference. Nothing is written when
// the catalog call fails. An id the catalog does not know is invalid input.
func (s *Service) EnsureMovieCached(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	if tmdbID <= 0 {
		return nil, invalid("tmdb_id", "must be > 0")
	}

	sctx, cancel := s.storeCtx(ctx)
	m, err := s.repo.GetMovie(sctx, tmdbID)
	cancel()
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeFailure("lookup movie", err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CatalogTimeout)
	detail, err := s.catalog.GetMovie(cctx, tmdbID)
	cancel()
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, invalid("tmdb_id", "unknown movie")
	}
	if err != nil {
		return nil, fmt.Errorf("fetch movie %d: %w: %w", tmdbID, ErrUpstreamUnavailable, err)
	}

	m = &models.Movie{TMDBID: tmdbID, Title: detail.Title, PosterPath: detail.PosterPath}
	sctx, cancel = s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.UpsertMovie(sctx, m); err != nil {
		return nil, storeFailure("cache movie", err)
	}
	s.log.WithContext(ctx).Debugf("cached movie %d (%s)", tmdbID, m.Title)
	return m, nil
}
