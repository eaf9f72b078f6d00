package social

import (
	"context"
	"errors"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
)

// Follow makes followerID follow followingID. Following yourself is invalid
// and following twice fails with ErrAlreadyFollowing.
func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == "" {
		return ErrUnauthenticated
	}
	if followingID == "" {
		return invalid("following_id", "is required")
	}
	if followerID == followingID {
		return invalid("following_id", "cannot follow yourself")
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if _, err := s.repo.GetProfile(sctx, followingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return storeFailure("lookup profile", err)
	}
	exists, err := s.repo.FollowExists(sctx, followerID, followingID)
	if err != nil {
		return storeFailure("check follow", err)
	}
	if exists {
		return ErrAlreadyFollowing
	}

	err = s.repo.CreateFollow(sctx, &models.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: s.now()})
	if errors.Is(err, store.ErrDuplicate) {
		return ErrAlreadyFollowing
	}
	if err != nil {
		return storeFailure("create follow", err)
	}
	return nil
}

// Unfollow succeeds whether or not the follow existed.
func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	if followerID == "" {
		return ErrUnauthenticated
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.DeleteFollow(sctx, followerID, followingID); err != nil {
		return storeFailure("delete follow", err)
	}
	return nil
}

func (s *Service) CountFollowing(ctx context.Context, userID string) (int64, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.CountFollowing(sctx, userID)
	if err != nil {
		return 0, storeFailure("count following", err)
	}
	return n, nil
}

func (s *Service) CountFollowers(ctx context.Context, userID string) (int64, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.CountFollowers(sctx, userID)
	if err != nil {
		return 0, storeFailure("count followers", err)
	}
	return n, nil
}

// IsFollowing is false for anonymous callers and for self.
func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" || followerID == followingID {
		return false, nil
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	ok, err := s.repo.FollowExists(sctx, followerID, followingID)
	if err != nil {
		return false, storeFailure("check follow", err)
	}
	return ok, nil
}

func (s *Service) ListFollowing(ctx context.Context, userID string) ([]models.ProfileSummary, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.repo.ListFollowingProfiles(sctx, userID)
	if err != nil {
		return nil, storeFailure("list following", err)
	}
	return out, nil
}

func (s *Service) ListFollowers(ctx context.Context, userID string) ([]models.ProfileSummary, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.repo.ListFollowerProfiles(sctx, userID)
	if err != nil {
		return nil, storeFailure("list followers", err)
	}
	return out, nil
}
