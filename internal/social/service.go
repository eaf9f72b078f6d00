package social

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/tmdb"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CreateProfileIfMissing(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, id string, username, bio *string) (int64, error)
	SearchProfiles(ctx context.Context, query string, limit int) ([]models.ProfileSummary, error)

	GetMovie(ctx context.Context, tmdbID int64) (*models.Movie, error)
	UpsertMovie(ctx context.Context, m *models.Movie) error

	ReviewExists(ctx context.Context, userID string, tmdbID int64) (bool, error)
	CreateReview(ctx context.Context, r *models.Review) error
	UpdateReview(ctx context.Context, r *models.Review) (int64, error)
	DeleteReview(ctx context.Context, id, userID string) (int64, error)
	GetReviewByUserMovie(ctx context.Context, userID string, tmdbID int64) (*models.Review, error)
	GetOwnedReview(ctx context.Context, id, userID string) (*models.Review, error)
	ListReviewsByMovie(ctx context.Context, tmdbID int64) ([]models.ReviewView, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]models.ReviewView, error)
	ListReviewsByUsers(ctx context.Context, userIDs []string, limit int) ([]models.ReviewView, error)

	AddWishlist(ctx context.Context, w *models.Wishlist) error
	RemoveWishlist(ctx context.Context, userID string, tmdbID int64) error
	WishlistExists(ctx context.Context, userID string, tmdbID int64) (bool, error)
	ListWishlistByUser(ctx context.Context, userID string, limit int) ([]models.WishlistView, error)
	ListWishlistByUsers(ctx context.Context, userIDs []string, limit int) ([]models.WishlistView, error)

	CreateFollow(ctx context.Context, f *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	FollowCounts(ctx context.Context, userID string) (following, followers int64, err error)
	ListFollowingProfiles(ctx context.Context, userID string) ([]models.ProfileSummary, error)
	ListFollowerProfiles(ctx context.Context, userID string) ([]models.ProfileSummary, error)
}

// Catalog is the slice of the movie catalog used to backfill the movie cache.
type Catalog interface {
	GetMovie(ctx context.Context, id int64) (*tmdb.Movie, error)
}

type Config struct {
	StoreTimeout   time.Duration
	CatalogTimeout time.Duration
	// TimelineLimit caps each activity type fetched for the timeline.
	TimelineLimit int
}

func (c Config) withDefaults() Config {
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.CatalogTimeout <= 0 {
		c.CatalogTimeout = 10 * time.Second
	}
	if c.TimelineLimit <= 0 {
		c.TimelineLimit = 20
	}
	return c
}

// Service owns every read and write over profiles, movies, reviews,
// wishlists and follows. Callers pass the acting user's id explicitly;
// an empty id means the caller is anonymous.
type Service struct {
	repo    Repository
	catalog Catalog
	cfg     Config
	log     *log.Helper

	now   func() time.Time
	newID func() (string, error)
}

func NewService(repo Repository, catalog Catalog, cfg Config, logger log.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		cfg:     cfg.withDefaults(),
		log:     log.NewHelper(log.With(logger, "module", "social")),
		now:     func() time.Time { return time.Now().UTC() },
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}
