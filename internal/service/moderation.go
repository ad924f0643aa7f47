package service

import (
	"context"
	"log/slog"
	"os"

	"reelfeed/internal/cache"
	"reelfeed/internal/media"
	"reelfeed/internal/middleware"
	"reelfeed/internal/models"
	"reelfeed/internal/repository"
)

// ModerationService implements the admin surface: approving and removing
// posts. Both operations change what every viewer can see, so they clear the
// whole feed cache instead of chasing individual entries.
type ModerationService struct {
	posts     repository.PostRepository
	feedCache *cache.FeedCache
	mediaRoot string
}

// NewModerationService creates a new moderation service.
func NewModerationService(posts repository.PostRepository, feedCache *cache.FeedCache, mediaRoot string) *ModerationService {
	return &ModerationService{posts: posts, feedCache: feedCache, mediaRoot: mediaRoot}
}

// Approve makes a pending post visible in every feed.
func (s *ModerationService) Approve(ctx context.Context, postID uint) error {
	if err := s.posts.SetStatus(ctx, postID, models.PostStatusApproved); err != nil {
		return err
	}
	s.feedCache.InvalidateAll(ctx)
	return nil
}

// ListAll returns posts of every status for review.
func (s *ModerationService) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit = clamp(limit, DefaultFeedLimit, MaxFeedLimit)
	if offset < 0 {
		offset = 0
	}
	return s.posts.ListAll(ctx, limit, offset)
}

// Delete removes the post's media files and rows. File removal is
// best-effort; a missing file must not keep the rows alive.
func (s *ModerationService) Delete(ctx context.Context, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	for _, rel := range post.Media {
		path, resolveErr := media.ResolveWithin(s.mediaRoot, rel)
		if resolveErr != nil {
			middleware.Logger.WarnContext(ctx, "skipping media file outside root",
				slog.String("path", rel), slog.Uint64("post_id", uint64(postID)))
			continue
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			middleware.Logger.WarnContext(ctx, "failed to remove media file",
				slog.String("path", rel), slog.String("error", rmErr.Error()))
		}
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.feedCache.InvalidateAll(ctx)
	return nil
}
