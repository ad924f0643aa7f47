package service

import (
	"context"
	"strings"

	"reelfeed/internal/cache"
	"reelfeed/internal/models"
	"reelfeed/internal/repository"
)

// EngagementService applies likes, comments and views, keeping the feed cache
// honest along the way.
type EngagementService struct {
	posts     repository.PostRepository
	feedCache *cache.FeedCache
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(posts repository.PostRepository, feedCache *cache.FeedCache) *EngagementService {
	return &EngagementService{posts: posts, feedCache: feedCache}
}

// Like records a like and returns whether it was new plus the current count.
// A repeat like is reported as already-existed, never as a failure.
func (s *EngagementService) Like(ctx context.Context, postID, userID uint) (models.LikeOutcome, int64, error) {
	outcome, count, err := s.posts.Like(ctx, postID, userID)
	if err != nil {
		return outcome, 0, err
	}
	if outcome == models.LikeCreated {
		s.feedCache.InvalidateUser(ctx, cache.ViewerKey(userID))
	}
	return outcome, count, nil
}

// Unlike removes the user's like and returns the current count. Unliking a
// post that was never liked is a no-op.
func (s *EngagementService) Unlike(ctx context.Context, postID, userID uint) (int64, error) {
	count, err := s.posts.Unlike(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	s.feedCache.InvalidateUser(ctx, cache.ViewerKey(userID))
	return count, nil
}

// AddComment validates and persists a comment. Text is trimmed; empty or
// over-length text is rejected before the store is touched.
func (s *EngagementService) AddComment(ctx context.Context, postID, userID uint, username, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > models.MaxCommentLength {
		return nil, models.NewValidationError("Comment text exceeds maximum length")
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		Username: username,
		Text:     text,
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	s.feedCache.InvalidateUser(ctx, cache.ViewerKey(userID))
	return comment, nil
}

// CommentPageSize caps how many comments one post serves, oldest first.
const CommentPageSize = 200

// ListComments returns a post's comments, oldest first, capped.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.posts.ListComments(ctx, postID, CommentPageSize)
}

// RecordView counts the view once per viewer key. Views do not invalidate
// cached feed pages; the counter catches up when the TTL lapses.
func (s *EngagementService) RecordView(ctx context.Context, postID uint, viewerKey string) (bool, error) {
	return s.posts.RecordView(ctx, postID, viewerKey)
}
