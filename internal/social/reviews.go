package social

import (
	"context"
	"errors"
	"strings"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/validate"
)

type ReviewInput struct {
	TMDBID    int64  `json:"tmdb_id" validate:"gt=0"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Content   string `json:"content" validate:"required,max=1000"`
	IsSpoiler bool   `json:"is_spoiler"`
}

// normalize trims the content and validates every field.
func (in *ReviewInput) normalize() error {
	in.Content = strings.TrimSpace(in.Content)
	if errs := validate.Map(in); len(errs) > 0 {
		return &InvalidInputError{Fields: errs}
	}
	return nil
}

// CreateReview posts userID's single review of a movie. The movie is cached
// before the review is written.
func (s *Service) CreateReview(ctx context.Context, userID string, in ReviewInput) (*models.Review, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	exists, err := s.repo.ReviewExists(sctx, userID, in.TMDBID)
	cancel()
	if err != nil {
		return nil, storeFailure("check review", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	if _, err := s.EnsureMovieCached(ctx, in.TMDBID); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	r := &models.Review{
		ID:        id,
		UserID:    userID,
		TMDBID:    in.TMDBID,
		Rating:    in.Rating,
		Content:   in.Content,
		IsSpoiler: in.IsSpoiler,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sctx, cancel = s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.CreateReview(sctx, r); err != nil {
		// a concurrent request won the race past the pre-check
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, storeFailure("create review", err)
	}
	return r, nil
}

// UpdateReview rewrites rating, content and spoiler flag of a review owned by
// userID and returns the stored row. The movie of a review never changes. A
// review that does not exist and one owned by someone else are
// indistinguishable.
func (s *Service) UpdateReview(ctx context.Context, userID, reviewID string, in ReviewInput) (*models.Review, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(reviewID) == "" {
		return nil, invalid("review_id", "is required")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	r := &models.Review{
		ID:        reviewID,
		UserID:    userID,
		Rating:    in.Rating,
		Content:   in.Content,
		IsSpoiler: in.IsSpoiler,
		UpdatedAt: s.now(),
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.UpdateReview(sctx, r)
	if err != nil {
		return nil, storeFailure("update review", err)
	}
	if n == 0 {
		return nil, ErrNotFoundOrForbidden
	}
	stored, err := s.repo.GetOwnedReview(sctx, reviewID, userID)
	if errors.Is(err, store.ErrNotFound) {
		// deleted between the update and the read
		return nil, ErrNotFoundOrForbidden
	}
	if err != nil {
		return nil, storeFailure("get review", err)
	}
	return stored, nil
}

func (s *Service) DeleteReview(ctx context.Context, userID, reviewID string, tmdbID int64) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(reviewID) == "" {
		return invalid("review_id", "is required")
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.DeleteReview(sctx, reviewID, userID)
	if err != nil {
		return storeFailure("delete review", err)
	}
	if n == 0 {
		return ErrNotFoundOrForbidden
	}
	s.log.WithContext(ctx).Debugf("review %s on movie %d deleted by %s", reviewID, tmdbID, userID)
	return nil
}

// ListMovieReviews returns every review of a movie with author and movie
// details, newest first.
func (s *Service) ListMovieReviews(ctx context.Context, tmdbID int64) ([]models.ReviewView, error) {
	if tmdbID <= 0 {
		return nil, invalid("tmdb_id", "must be > 0")
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.repo.ListReviewsByMovie(sctx, tmdbID)
	if err != nil {
		return nil, storeFailure("list movie reviews", err)
	}
	return out, nil
}

// GetOwnReview returns userID's review of a movie, for prefilling an edit form.
func (s *Service) GetOwnReview(ctx context.Context, userID string, tmdbID int64) (*models.Review, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	r, err := s.repo.GetReviewByUserMovie(sctx, userID, tmdbID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeFailure("get review", err)
	}
	return r, nil
}
