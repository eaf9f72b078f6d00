package models

import (
	"time"
)

// WishlistStatusWant is the only status a wishlist entry can carry today.
const WishlistStatusWant = "want"

// Profile is keyed by the auth provider's user id.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username  *string `gorm:"size:50;index" json:"username"`
	AvatarURL *string `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	Bio       *string `gorm:"size:500" json:"bio"`
}

// Movie is the locally cached subset of catalog data referenced by reviews and wishlists.
type Movie struct {
	TMDBID     int64     `gorm:"column:tmdb_id;primaryKey;autoIncrement:false" json:"tmdb_id"`
	Title      string    `gorm:"not null;size:500" json:"title"`
	PosterPath *string   `gorm:"column:poster_path;size:255" json:"poster_path"`
	CreatedAt  time.Time `json:"created_at"`
}

type Wishlist struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:64;index:idx_wishlists_user_created,priority:1" json:"user_id"`
	TMDBID    int64     `gorm:"column:tmdb_id;primaryKey;autoIncrement:false" json:"tmdb_id"`
	Status    string    `gorm:"size:20;not null;default:'want'" json:"status"`
	CreatedAt time.Time `gorm:"index:idx_wishlists_user_created,priority:2" json:"created_at"`
}

type Review struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;size:64;uniqueIndex:uq_reviews_user_movie;index:idx_reviews_user_created,priority:1" json:"user_id"`
	TMDBID    int64     `gorm:"column:tmdb_id;not null;uniqueIndex:uq_reviews_user_movie;index:idx_reviews_movie" json:"tmdb_id"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Content   string    `gorm:"not null;size:1000" json:"content"`
	IsSpoiler bool      `gorm:"column:is_spoiler;not null;default:false" json:"is_spoiler"`
	CreatedAt time.Time `gorm:"index:idx_reviews_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Follow struct {
	FollowerID  string    `gorm:"column:follower_id;primaryKey;size:64;check:chk_follows_not_self,follower_id <> following_id" json:"follower_id"`
	FollowingID string    `gorm:"column:following_id;primaryKey;size:64;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// All lists every table in migration order.
func All() []any {
	return []any{&Profile{}, &Movie{}, &Wishlist{}, &Review{}, &Follow{}}
}

// ReviewView is a review joined with its author's profile and the cached movie.
type ReviewView struct {
	ID         string    `gorm:"column:id" json:"id"`
	UserID     string    `gorm:"column:user_id" json:"user_id"`
	TMDBID     int64     `gorm:"column:tmdb_id" json:"tmdb_id"`
	Rating     int       `gorm:"column:rating" json:"rating"`
	Content    string    `gorm:"column:content" json:"content"`
	IsSpoiler  bool      `gorm:"column:is_spoiler" json:"is_spoiler"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	Username   *string   `gorm:"column:username" json:"username"`
	AvatarURL  *string   `gorm:"column:avatar_url" json:"avatar_url"`
	MovieTitle *string   `gorm:"column:movie_title" json:"movie_title"`
	PosterPath *string   `gorm:"column:poster_path" json:"poster_path"`
}

// WishlistView is a wishlist entry joined with its owner's profile and the cached movie.
type WishlistView struct {
	UserID     string    `gorm:"column:user_id" json:"user_id"`
	TMDBID     int64     `gorm:"column:tmdb_id" json:"tmdb_id"`
	Status     string    `gorm:"column:status" json:"status"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	Username   *string   `gorm:"column:username" json:"username"`
	AvatarURL  *string   `gorm:"column:avatar_url" json:"avatar_url"`
	MovieTitle *string   `gorm:"column:movie_title" json:"movie_title"`
	PosterPath *string   `gorm:"column:poster_path" json:"poster_path"`
}

// ProfileSummary is the short form used by user lists and search.
type ProfileSummary struct {
	ID        string  `gorm:"column:id" json:"id"`
	Username  *string `gorm:"column:username" json:"username"`
	AvatarURL *string `gorm:"column:avatar_url" json:"avatar_url"`
}
