package service

import (
	"context"

	"reelfeed/internal/cache"
	"reelfeed/internal/models"
	"reelfeed/internal/repository"
)

// FollowService maintains follow edges and keeps both caches consistent with
// them.
type FollowService struct {
	users       repository.UserRepository
	follows     repository.FollowRepository
	followCache *cache.FollowGraphCache
	feedCache   *cache.FeedCache
}

// NewFollowService creates a new follow service.
func NewFollowService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	followCache *cache.FollowGraphCache,
	feedCache *cache.FeedCache,
) *FollowService {
	return &FollowService{
		users:       users,
		follows:     follows,
		followCache: followCache,
		feedCache:   feedCache,
	}
}

// Follow creates an edge from followerID to the named user. Following
// yourself is rejected; following someone twice reports already-existed.
func (s *FollowService) Follow(ctx context.Context, followerID uint, followingUsername string) (models.FollowResult, error) {
	target, err := s.users.GetByUsername(ctx, followingUsername)
	if err != nil {
		return models.FollowAlreadyExists, err
	}
	if target.ID == followerID {
		return models.FollowAlreadyExists, models.NewValidationError("You cannot follow yourself")
	}

	result, err := s.follows.Create(ctx, followerID, target.ID)
	if err != nil {
		return result, err
	}

	if result == models.FollowCreated {
		s.followCache.Invalidate(ctx, followerID)
		s.feedCache.InvalidateUser(ctx, cache.ViewerKey(followerID))
	}
	return result, nil
}

// Unfollow removes the edge if present; removing a missing edge is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, followingUsername string) error {
	target, err := s.users.GetByUsername(ctx, followingUsername)
	if err != nil {
		return err
	}
	if err := s.follows.Delete(ctx, followerID, target.ID); err != nil {
		return err
	}

	s.followCache.Invalidate(ctx, followerID)
	s.feedCache.InvalidateUser(ctx, cache.ViewerKey(followerID))
	return nil
}

// IsFollowing reports whether followerID follows the named user.
func (s *FollowService) IsFollowing(ctx context.Context, followerID uint, followingUsername string) (bool, error) {
	target, err := s.users.GetByUsername(ctx, followingUsername)
	if err != nil {
		return false, err
	}
	return s.follows.Exists(ctx, followerID, target.ID)
}
