package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique or primary key constraint.
	ErrDuplicate = errors.New("duplicate key")
)

type Store struct{ DB *gorm.DB }

func New(db *gorm.DB) *Store { return &Store{DB: db} }

// translate folds gorm's sentinel errors into the store's own. The *gorm.DB must be opened
// with TranslateError so that constraint violations arrive as gorm.ErrDuplicatedKey.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		// older sqlite translators only map unique-index codes, not primary key ones
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Profiles

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate("get profile", err)
	}
	return &p, nil
}

// CreateProfileIfMissing inserts p unless a profile with the same id already exists.
func (s *Store) CreateProfileIfMissing(ctx context.Context, p *models.Profile) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(p).Error
	return translate("create profile", err)
}

// UpdateProfile rewrites username and bio for id and reports the number of rows matched.
func (s *Store) UpdateProfile(ctx context.Context, id string, username, bio *string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]any{
		"username": username, "bio": bio,
	})
	return res.RowsAffected, translate("update profile", res.Error)
}

// SearchProfiles matches username case-insensitively anywhere in the string.
func (s *Store) SearchProfiles(ctx context.Context, query string, limit int) ([]models.ProfileSummary, error) {
	var out []models.ProfileSummary
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Select("id, username, avatar_url").
		Where("LOWER(username) LIKE ? ESCAPE '\\'", pattern).
		Order("username ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, translate("search profiles", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Movies

func (s *Store) GetMovie(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	var m models.Movie
	if err := s.DB.WithContext(ctx).First(&m, "tmdb_id = ?", tmdbID).Error; err != nil {
		return nil, translate("get movie", err)
	}
	return &m, nil
}

// UpsertMovie inserts m or, if another writer got there first, overwrites its title and poster.
func (s *Store) UpsertMovie(ctx context.Context, m *models.Movie) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tmdb_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "poster_path"}),
	}).Create(m).Error
	return translate("upsert movie", err)
}

// Reviews

func (s *Store) ReviewExists(ctx context.Context, userID string, tmdbID int64) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Review{}).Where("user_id = ? AND tmdb_id = ?", userID, tmdbID).Count(&count).Error
	return count > 0, translate("review exists", err)
}

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return translate("create review", s.DB.WithContext(ctx).Create(r).Error)
}

// UpdateReview changes rating, content and spoiler flag of the review owned by r.UserID.
func (s *Store) UpdateReview(ctx context.Context, r *models.Review) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Review{}).Where("id = ? AND user_id = ?", r.ID, r.UserID).Updates(map[string]any{
		"rating": r.Rating, "content": r.Content, "is_spoiler": r.IsSpoiler, "updated_at": r.UpdatedAt,
	})
	return res.RowsAffected, translate("update review", res.Error)
}

func (s *Store) DeleteReview(ctx context.Context, id, userID string) (int64, error) {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Review{})
	return res.RowsAffected, translate("delete review", res.Error)
}

// GetOwnedReview loads review id only if userID wrote it.
func (s *Store) GetOwnedReview(ctx context.Context, id, userID string) (*models.Review, error) {
	var r models.Review
	if err := s.DB.WithContext(ctx).First(&r, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate("get review", err)
	}
	return &r, nil
}

func (s *Store) GetReviewByUserMovie(ctx context.Context, userID string, tmdbID int64) (*models.Review, error) {
	var r models.Review
	if err := s.DB.WithContext(ctx).First(&r, "user_id = ? AND tmdb_id = ?", userID, tmdbID).Error; err != nil {
		return nil, translate("get review", err)
	}
	return &r, nil
}

func (s *Store) reviewViews(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table("reviews r").
		Select("r.id, r.user_id, r.tmdb_id, r.rating, r.content, r.is_spoiler, r.created_at, p.username, p.avatar_url, m.title AS movie_title, m.poster_path").
		Joins("LEFT JOIN profiles p ON p.id = r.user_id").
		Joins("LEFT JOIN movies m ON m.tmdb_id = r.tmdb_id").
		Order("r.created_at DESC, r.id DESC")
}

func (s *Store) ListReviewsByMovie(ctx context.Context, tmdbID int64) ([]models.ReviewView, error) {
	var out []models.ReviewView
	if err := s.reviewViews(ctx).Where("r.tmdb_id = ?", tmdbID).Scan(&out).Error; err != nil {
		return nil, translate("list movie reviews", err)
	}
	return out, nil
}

func (s *Store) ListReviewsByUser(ctx context.Context, userID string) ([]models.ReviewView, error) {
	var out []models.ReviewView
	if err := s.reviewViews(ctx).Where("r.user_id = ?", userID).Scan(&out).Error; err != nil {
		return nil, translate("list user reviews", err)
	}
	return out, nil
}

// ListReviewsByUsers returns the newest reviews written by any of userIDs.
func (s *Store) ListReviewsByUsers(ctx context.Context, userIDs []string, limit int) ([]models.ReviewView, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []models.ReviewView
	if err := s.reviewViews(ctx).Where("r.user_id IN ?", userIDs).Limit(limit).Scan(&out).Error; err != nil {
		return nil, translate("list followed reviews", err)
	}
	return out, nil
}

// Wishlists

func (s *Store) AddWishlist(ctx context.Context, w *models.Wishlist) error {
	return translate("add wishlist", s.DB.WithContext(ctx).Create(w).Error)
}

func (s *Store) RemoveWishlist(ctx context.Context, userID string, tmdbID int64) error {
	err := s.DB.WithContext(ctx).Where("user_id = ? AND tmdb_id = ?", userID, tmdbID).Delete(&models.Wishlist{}).Error
	return translate("remove wishlist", err)
}

func (s *Store) WishlistExists(ctx context.Context, userID string, tmdbID int64) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Wishlist{}).Where("user_id = ? AND tmdb_id = ?", userID, tmdbID).Count(&count).Error
	return count > 0, translate("wishlist exists", err)
}

func (s *Store) wishlistViews(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table("wishlists w").
		Select("w.user_id, w.tmdb_id, w.status, w.created_at, p.username, p.avatar_url, m.title AS movie_title, m.poster_path").
		Joins("LEFT JOIN profiles p ON p.id = w.user_id").
		Joins("LEFT JOIN movies m ON m.tmdb_id = w.tmdb_id").
		Order("w.created_at DESC, w.tmdb_id DESC")
}

// ListWishlistByUser returns the user's wishlist, newest first. A limit <= 0 means no limit.
func (s *Store) ListWishlistByUser(ctx context.Context, userID string, limit int) ([]models.WishlistView, error) {
	var out []models.WishlistView
	q := s.wishlistViews(ctx).Where("w.user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&out).Error; err != nil {
		return nil, translate("list wishlist", err)
	}
	return out, nil
}

func (s *Store) ListWishlistByUsers(ctx context.Context, userIDs []string, limit int) ([]models.WishlistView, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []models.WishlistView
	if err := s.wishlistViews(ctx).Where("w.user_id IN ?", userIDs).Limit(limit).Scan(&out).Error; err != nil {
		return nil, translate("list followed wishlists", err)
	}
	return out, nil
}

// Follows

func (s *Store) CreateFollow(ctx context.Context, f *models.Follow) error {
	return translate("create follow", s.DB.WithContext(ctx).Create(f).Error)
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	err := s.DB.WithContext(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{}).Error
	return translate("delete follow", err)
}

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error
	return count > 0, translate("follow exists", err)
}

// FollowingIDs lists the ids userID follows.
func (s *Store) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error; err != nil {
		return nil, translate("following ids", err)
	}
	return ids, nil
}

func (s *Store) CountFollowing(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&n).Error
	return n, translate("count following", err)
}

func (s *Store) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&n).Error
	return n, translate("count followers", err)
}

// FollowCounts reads both directions in one round trip.
func (s *Store) FollowCounts(ctx context.Context, userID string) (following, followers int64, err error) {
	var row struct {
		Following int64
		Followers int64
	}
	err = s.DB.WithContext(ctx).Model(&models.Follow{}).
		Select("COALESCE(SUM(CASE WHEN follower_id = ? THEN 1 ELSE 0 END), 0) AS following, COALESCE(SUM(CASE WHEN following_id = ? THEN 1 ELSE 0 END), 0) AS followers", userID, userID).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, translate("follow counts", err)
	}
	return row.Following, row.Followers, nil
}

func (s *Store) ListFollowingProfiles(ctx context.Context, userID string) ([]models.ProfileSummary, error) {
	var out []models.ProfileSummary
	err := s.DB.WithContext(ctx).Table("follows f").
		Select("p.id, p.username, p.avatar_url").
		Joins("JOIN profiles p ON p.id = f.following_id").
		Where("f.follower_id = ?", userID).
		Order("f.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, translate("list following", err)
	}
	return out, nil
}

func (s *Store) ListFollowerProfiles(ctx context.Context, userID string) ([]models.ProfileSummary, error) {
	var out []models.ProfileSummary
	err := s.DB.WithContext(ctx).Table("follows f").
		Select("p.id, p.username, p.avatar_url").
		Joins("JOIN profiles p ON p.id = f.follower_id").
		Where("f.following_id = ?", userID).
		Order("f.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, translate("list followers", err)
	}
	return out, nil
}
