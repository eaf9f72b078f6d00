package social

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/validate"
)

const (
	searchLimit = 10
	// maxUsernameLen matches the profiles.username column width.
	maxUsernameLen = 50
)

// defaultUsername is the local part of email cut to maxUsernameLen runes.
func defaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if r := []rune(local); len(r) > maxUsernameLen {
		return string(r[:maxUsernameLen])
	}
	return local
}

// EnsureProfile creates userID's profile on first contact, naming it after
// the local part of email. An existing profile is returned unchanged.
func (s *Service) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	p := &models.Profile{ID: userID}
	if name := defaultUsername(email); name != "" {
		p.Username = &name
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.CreateProfileIfMissing(sctx, p); err != nil {
		return nil, storeFailure("create profile", err)
	}
	got, err := s.repo.GetProfile(sctx, userID)
	if err != nil {
		return nil, storeFailure("get profile", err)
	}
	return got, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.repo.GetProfile(sctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeFailure("get profile", err)
	}
	return p, nil
}

type ProfileInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Bio      string `json:"bio" validate:"max=500"`
}

// UpdateProfile lets a user edit their own username and bio. An empty bio
// clears it.
func (s *Service) UpdateProfile(ctx context.Context, actorID, targetID string, in ProfileInput) (*models.Profile, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	if actorID != targetID {
		return nil, ErrNotFoundOrForbidden
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Bio = strings.TrimSpace(in.Bio)
	if errs := validate.Map(in); len(errs) > 0 {
		return nil, &InvalidInputError{Fields: errs}
	}

	var bio *string
	if in.Bio != "" {
		bio = &in.Bio
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.UpdateProfile(sctx, targetID, &in.Username, bio)
	if err != nil {
		return nil, storeFailure("update profile", err)
	}
	if n == 0 {
		return nil, ErrNotFoundOrForbidden
	}
	p, err := s.repo.GetProfile(sctx, targetID)
	if err != nil {
		return nil, storeFailure("get profile", err)
	}
	return p, nil
}

// SearchUsers matches usernames case-insensitively. A blank query matches nobody.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]models.ProfileSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ProfileSummary{}, nil
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.repo.SearchProfiles(sctx, query, searchLimit)
	if err != nil {
		return nil, storeFailure("search profiles", err)
	}
	return out, nil
}

type ProfileView struct {
	Profile        *models.Profile       `json:"profile"`
	FollowingCount int64                 `json:"following_count"`
	FollowerCount  int64                 `json:"follower_count"`
	IsFollowing    bool                  `json:"is_following"`
	IsOwnProfile   bool                  `json:"is_own_profile"`
	Wishlist       []models.WishlistView `json:"wishlist"`
	Reviews        []models.ReviewView   `json:"reviews"`
}

// GetProfileView assembles the public profile page of targetID as seen by
// viewerID, who may be anonymous.
func (s *Service) GetProfileView(ctx context.Context, viewerID, targetID string) (*ProfileView, error) {
	if targetID == "" {
		return nil, invalid("user_id", "is required")
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	p, err := s.repo.GetProfile(sctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeFailure("get profile", err)
	}

	view := &ProfileView{Profile: p, IsOwnProfile: viewerID == targetID}
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		view.FollowingCount, view.FollowerCount, err = s.repo.FollowCounts(gctx, targetID)
		return err
	})
	if viewerID != "" && !view.IsOwnProfile {
		g.Go(func() error {
			var err error
			view.IsFollowing, err = s.repo.FollowExists(gctx, viewerID, targetID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		view.Wishlist, err = s.repo.ListWishlistByUser(gctx, targetID, 0)
		return err
	})
	g.Go(func() error {
		var err error
		view.Reviews, err = s.repo.ListReviewsByUser(gctx, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure("profile view", err)
	}
	if view.Wishlist == nil {
		view.Wishlist = []models.WishlistView{}
	}
	if view.Reviews == nil {
		view.Reviews = []models.ReviewView{}
	}
	return view, nil
}
