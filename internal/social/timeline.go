package social

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
)

const (
	ActivityReview   = "review"
	ActivityWishlist = "wishlist"
)

// ActivityItem is one timeline entry. Exactly one of Review and Wishlist is
// set, matching Type. On the wire it is the row's own fields plus "type".
type ActivityItem struct {
	Type      string
	CreatedAt time.Time
	Review    *models.ReviewView
	Wishlist  *models.WishlistView
}

func (a ActivityItem) row() (any, error) {
	switch {
	case a.Type == ActivityReview && a.Review != nil:
		return a.Review, nil
	case a.Type == ActivityWishlist && a.Wishlist != nil:
		return a.Wishlist, nil
	default:
		return nil, fmt.Errorf("activity item %q has no matching row", a.Type)
	}
}

func (a ActivityItem) MarshalJSON() ([]byte, error) {
	row, err := a.row()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(a.Type)
	return json.Marshal(fields)
}

func (a *ActivityItem) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	*a = ActivityItem{Type: head.Type}
	switch head.Type {
	case ActivityReview:
		a.Review = &models.ReviewView{}
		if err := json.Unmarshal(b, a.Review); err != nil {
			return err
		}
		a.CreatedAt = a.Review.CreatedAt
	case ActivityWishlist:
		a.Wishlist = &models.WishlistView{}
		if err := json.Unmarshal(b, a.Wishlist); err != nil {
			return err
		}
		a.CreatedAt = a.Wishlist.CreatedAt
	default:
		return fmt.Errorf("unknown activity type %q", head.Type)
	}
	return nil
}

// ID is the review id, or "user:tmdb" for wishlist entries.
func (a ActivityItem) ID() string {
	if a.Review != nil {
		return a.Review.ID
	}
	if a.Wishlist != nil {
		return fmt.Sprintf("%s:%d", a.Wishlist.UserID, a.Wishlist.TMDBID)
	}
	return ""
}

// GetTimeline merges the most recent reviews and wishlist additions of
// everyone userID follows, newest first. Users who follow nobody get an
// empty timeline without any activity query. If either activity query
// fails the whole timeline fails.
func (s *Service) GetTimeline(ctx context.Context, userID string) ([]ActivityItem, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	following, err := s.repo.FollowingIDs(sctx, userID)
	if err != nil {
		return nil, storeFailure("following ids", err)
	}
	if len(following) == 0 {
		return []ActivityItem{}, nil
	}

	var (
		reviews  []models.ReviewView
		wishlist []models.WishlistView
	)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		reviews, err = s.repo.ListReviewsByUsers(gctx, following, s.cfg.TimelineLimit)
		return err
	})
	g.Go(func() error {
		var err error
		wishlist, err = s.repo.ListWishlistByUsers(gctx, following, s.cfg.TimelineLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure("timeline activity", err)
	}

	items := make([]ActivityItem, 0, len(reviews)+len(wishlist))
	for i := range reviews {
		items = append(items, ActivityItem{Type: ActivityReview, CreatedAt: reviews[i].CreatedAt, Review: &reviews[i]})
	}
	for i := range wishlist {
		items = append(items, ActivityItem{Type: ActivityWishlist, CreatedAt: wishlist[i].CreatedAt, Wishlist: &wishlist[i]})
	}
	sortActivity(items)
	return items, nil
}

// sortActivity orders newest first, breaking ties by type then id, both descending.
func sortActivity(items []ActivityItem) {
	slices.SortFunc(items, func(a, b ActivityItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Type, a.Type); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
}
