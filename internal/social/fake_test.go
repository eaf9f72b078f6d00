package social

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/tmdb"
)

type wishKey struct {
	user string
	tmdb int64
}

type followKey struct{ from, to string }

// fakeRepo is an in-memory Repository with the same uniqueness rules as the
// real schema. Calls are counted per method name.
type fakeRepo struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	movies   map[int64]models.Movie
	reviews  map[string]models.Review
	wishlist map[wishKey]models.Wishlist
	follows  map[followKey]models.Follow
	calls    map[string]int

	// failOn makes the named method return failErr.
	failOn  map[string]bool
	failErr error
	// skipPrecheck makes ReviewExists and WishlistExists lie, as if a
	// concurrent request inserted between the check and the insert.
	skipPrecheck bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[string]models.Profile{},
		movies:   map[int64]models.Movie{},
		reviews:  map[string]models.Review{},
		wishlist: map[wishKey]models.Wishlist{},
		follows:  map[followKey]models.Follow{},
		calls:    map[string]int{},
		failOn:   map[string]bool{},
		failErr:  errors.New("connection refused"),
	}
}

func (f *fakeRepo) hit(name string) error {
	f.calls[name]++
	if f.failOn[name] {
		return f.failErr
	}
	return nil
}

func (f *fakeRepo) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRepo) addProfile(id, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := username
	f.profiles[id] = models.Profile{ID: id, Username: &u}
}

func (f *fakeRepo) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("get profile: %w", store.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeRepo) CreateProfileIfMissing(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("CreateProfileIfMissing"); err != nil {
		return err
	}
	if p.Username != nil && utf8.RuneCountInString(*p.Username) > maxUsernameLen {
		return fmt.Errorf("create profile: value too long for type character varying(%d)", maxUsernameLen)
	}
	if _, ok := f.profiles[p.ID]; !ok {
		f.profiles[p.ID] = *p
	}
	return nil
}

func (f *fakeRepo) UpdateProfile(_ context.Context, id string, username, bio *string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("UpdateProfile"); err != nil {
		return 0, err
	}
	p, ok := f.profiles[id]
	if !ok {
		return 0, nil
	}
	p.Username, p.Bio = username, bio
	f.profiles[id] = p
	return 1, nil
}

func (f *fakeRepo) SearchProfiles(_ context.Context, query string, limit int) ([]models.ProfileSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("SearchProfiles"); err != nil {
		return nil, err
	}
	var out []models.ProfileSummary
	for _, p := range f.profiles {
		if p.Username != nil && strings.Contains(strings.ToLower(*p.Username), strings.ToLower(query)) {
			out = append(out, models.ProfileSummary{ID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL})
		}
	}
	slices.SortFunc(out, func(a, b models.ProfileSummary) int { return cmp.Compare(*a.Username, *b.Username) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetMovie(_ context.Context, tmdbID int64) (*models.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetMovie"); err != nil {
		return nil, err
	}
	m, ok := f.movies[tmdbID]
	if !ok {
		return nil, fmt.Errorf("get movie: %w", store.ErrNotFound)
	}
	return &m, nil
}

func (f *fakeRepo) UpsertMovie(_ context.Context, m *models.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("UpsertMovie"); err != nil {
		return err
	}
	f.movies[m.TMDBID] = *m
	return nil
}

func (f *fakeRepo) ReviewExists(_ context.Context, userID string, tmdbID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ReviewExists"); err != nil {
		return false, err
	}
	if f.skipPrecheck {
		return false, nil
	}
	for _, r := range f.reviews {
		if r.UserID == userID && r.TMDBID == tmdbID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateReview(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("CreateReview"); err != nil {
		return err
	}
	for _, cur := range f.reviews {
		if cur.UserID == r.UserID && cur.TMDBID == r.TMDBID {
			return fmt.Errorf("create review: %w", store.ErrDuplicate)
		}
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeRepo) UpdateReview(_ context.Context, r *models.Review) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("UpdateReview"); err != nil {
		return 0, err
	}
	cur, ok := f.reviews[r.ID]
	if !ok || cur.UserID != r.UserID {
		return 0, nil
	}
	cur.Rating, cur.Content, cur.IsSpoiler, cur.UpdatedAt = r.Rating, r.Content, r.IsSpoiler, r.UpdatedAt
	f.reviews[r.ID] = cur
	return 1, nil
}

func (f *fakeRepo) DeleteReview(_ context.Context, id, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("DeleteReview"); err != nil {
		return 0, err
	}
	cur, ok := f.reviews[id]
	if !ok || cur.UserID != userID {
		return 0, nil
	}
	delete(f.reviews, id)
	return 1, nil
}

func (f *fakeRepo) GetOwnedReview(_ context.Context, id, userID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetOwnedReview"); err != nil {
		return nil, err
	}
	r, ok := f.reviews[id]
	if !ok || r.UserID != userID {
		return nil, fmt.Errorf("get review: %w", store.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeRepo) GetReviewByUserMovie(_ context.Context, userID string, tmdbID int64) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetReviewByUserMovie"); err != nil {
		return nil, err
	}
	for _, r := range f.reviews {
		if r.UserID == userID && r.TMDBID == tmdbID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("get review: %w", store.ErrNotFound)
}

func (f *fakeRepo) reviewView(r models.Review) models.ReviewView {
	v := models.ReviewView{
		ID: r.ID, UserID: r.UserID, TMDBID: r.TMDBID, Rating: r.Rating,
		Content: r.Content, IsSpoiler: r.IsSpoiler, CreatedAt: r.CreatedAt,
	}
	if p, ok := f.profiles[r.UserID]; ok {
		v.Username, v.AvatarURL = p.Username, p.AvatarURL
	}
	if m, ok := f.movies[r.TMDBID]; ok {
		title := m.Title
		v.MovieTitle, v.PosterPath = &title, m.PosterPath
	}
	return v
}

func (f *fakeRepo) selectReviews(keep func(models.Review) bool, limit int) []models.ReviewView {
	var out []models.ReviewView
	for _, r := range f.reviews {
		if keep(r) {
			out = append(out, f.reviewView(r))
		}
	}
	slices.SortFunc(out, func(a, b models.ReviewView) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeRepo) ListReviewsByMovie(_ context.Context, tmdbID int64) ([]models.ReviewView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListReviewsByMovie"); err != nil {
		return nil, err
	}
	return f.selectReviews(func(r models.Review) bool { return r.TMDBID == tmdbID }, 0), nil
}

func (f *fakeRepo) ListReviewsByUser(_ context.Context, userID string) ([]models.ReviewView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListReviewsByUser"); err != nil {
		return nil, err
	}
	return f.selectReviews(func(r models.Review) bool { return r.UserID == userID }, 0), nil
}

func (f *fakeRepo) ListReviewsByUsers(_ context.Context, userIDs []string, limit int) ([]models.ReviewView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListReviewsByUsers"); err != nil {
		return nil, err
	}
	return f.selectReviews(func(r models.Review) bool { return slices.Contains(userIDs, r.UserID) }, limit), nil
}

func (f *fakeRepo) AddWishlist(_ context.Context, w *models.Wishlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("AddWishlist"); err != nil {
		return err
	}
	k := wishKey{w.UserID, w.TMDBID}
	if _, ok := f.wishlist[k]; ok {
		return fmt.Errorf("add wishlist: %w", store.ErrDuplicate)
	}
	f.wishlist[k] = *w
	return nil
}

func (f *fakeRepo) RemoveWishlist(_ context.Context, userID string, tmdbID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("RemoveWishlist"); err != nil {
		return err
	}
	delete(f.wishlist, wishKey{userID, tmdbID})
	return nil
}

func (f *fakeRepo) WishlistExists(_ context.Context, userID string, tmdbID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("WishlistExists"); err != nil {
		return false, err
	}
	if f.skipPrecheck {
		return false, nil
	}
	_, ok := f.wishlist[wishKey{userID, tmdbID}]
	return ok, nil
}

func (f *fakeRepo) selectWishlist(keep func(models.Wishlist) bool, limit int) []models.WishlistView {
	var out []models.WishlistView
	for _, w := range f.wishlist {
		if !keep(w) {
			continue
		}
		v := models.WishlistView{UserID: w.UserID, TMDBID: w.TMDBID, Status: w.Status, CreatedAt: w.CreatedAt}
		if p, ok := f.profiles[w.UserID]; ok {
			v.Username, v.AvatarURL = p.Username, p.AvatarURL
		}
		if m, ok := f.movies[w.TMDBID]; ok {
			title := m.Title
			v.MovieTitle, v.PosterPath = &title, m.PosterPath
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b models.WishlistView) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.TMDBID, a.TMDBID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeRepo) ListWishlistByUser(_ context.Context, userID string, limit int) ([]models.WishlistView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListWishlistByUser"); err != nil {
		return nil, err
	}
	return f.selectWishlist(func(w models.Wishlist) bool { return w.UserID == userID }, limit), nil
}

func (f *fakeRepo) ListWishlistByUsers(_ context.Context, userIDs []string, limit int) ([]models.WishlistView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListWishlistByUsers"); err != nil {
		return nil, err
	}
	return f.selectWishlist(func(w models.Wishlist) bool { return slices.Contains(userIDs, w.UserID) }, limit), nil
}

func (f *fakeRepo) CreateFollow(_ context.Context, fl *models.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("CreateFollow"); err != nil {
		return err
	}
	k := followKey{fl.FollowerID, fl.FollowingID}
	if _, ok := f.follows[k]; ok {
		return fmt.Errorf("create follow: %w", store.ErrDuplicate)
	}
	f.follows[k] = *fl
	return nil
}

func (f *fakeRepo) DeleteFollow(_ context.Context, followerID, followingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("DeleteFollow"); err != nil {
		return err
	}
	delete(f.follows, followKey{followerID, followingID})
	return nil
}

func (f *fakeRepo) FollowExists(_ context.Context, followerID, followingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("FollowExists"); err != nil {
		return false, err
	}
	_, ok := f.follows[followKey{followerID, followingID}]
	return ok, nil
}

func (f *fakeRepo) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("FollowingIDs"); err != nil {
		return nil, err
	}
	var ids []string
	for k := range f.follows {
		if k.from == userID {
			ids = append(ids, k.to)
		}
	}
	return ids, nil
}

func (f *fakeRepo) countEdges(match func(followKey) bool) int64 {
	var n int64
	for k := range f.follows {
		if match(k) {
			n++
		}
	}
	return n
}

func (f *fakeRepo) CountFollowing(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("CountFollowing"); err != nil {
		return 0, err
	}
	return f.countEdges(func(k followKey) bool { return k.from == userID }), nil
}

func (f *fakeRepo) CountFollowers(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("CountFollowers"); err != nil {
		return 0, err
	}
	return f.countEdges(func(k followKey) bool { return k.to == userID }), nil
}

func (f *fakeRepo) FollowCounts(_ context.Context, userID string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("FollowCounts"); err != nil {
		return 0, 0, err
	}
	return f.countEdges(func(k followKey) bool { return k.from == userID }),
		f.countEdges(func(k followKey) bool { return k.to == userID }), nil
}

func (f *fakeRepo) listEdges(match func(followKey) (string, bool)) []models.ProfileSummary {
	type edge struct {
		id string
		at time.Time
	}
	var edges []edge
	for k, fl := range f.follows {
		if id, ok := match(k); ok {
			edges = append(edges, edge{id, fl.CreatedAt})
		}
	}
	slices.SortFunc(edges, func(a, b edge) int { return b.at.Compare(a.at) })
	out := make([]models.ProfileSummary, 0, len(edges))
	for _, e := range edges {
		p := f.profiles[e.id]
		out = append(out, models.ProfileSummary{ID: e.id, Username: p.Username, AvatarURL: p.AvatarURL})
	}
	return out
}

func (f *fakeRepo) ListFollowingProfiles(_ context.Context, userID string) ([]models.ProfileSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListFollowingProfiles"); err != nil {
		return nil, err
	}
	return f.listEdges(func(k followKey) (string, bool) { return k.to, k.from == userID }), nil
}

func (f *fakeRepo) ListFollowerProfiles(_ context.Context, userID string) ([]models.ProfileSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListFollowerProfiles"); err != nil {
		return nil, err
	}
	return f.listEdges(func(k followKey) (string, bool) { return k.from, k.to == userID }), nil
}

type fakeCatalog struct {
	mu     sync.Mutex
	movies map[int64]tmdb.Movie
	calls  int
	err    error
}

func (c *fakeCatalog) GetMovie(_ context.Context, id int64) (*tmdb.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	m, ok := c.movies[id]
	if !ok {
		return nil, fmt.Errorf("%w 404: %w", tmdb.ErrStatus, tmdb.ErrNotFound)
	}
	return &m, nil
}
