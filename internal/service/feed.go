// Package service holds the business logic between the HTTP handlers and the
// repositories: feed assembly, engagement rules and follow-graph maintenance.
package service

import (
	"context"

	"reelfeed/internal/cache"
	"reelfeed/internal/models"
	"reelfeed/internal/repository"
)

// Pagination bounds for the feed and reels endpoints.
const (
	MaxFeedLimit      = 50
	DefaultFeedLimit  = 10
	MaxReelsLimit     = 20
	DefaultReelsLimit = 5
)

// FeedService assembles per-viewer feed pages on top of the post store, the
// follow-graph cache and the feed page cache.
type FeedService struct {
	posts       repository.PostRepository
	follows     repository.FollowRepository
	followCache *cache.FollowGraphCache
	feedCache   *cache.FeedCache
}

// NewFeedService creates a new feed service.
func NewFeedService(
	posts repository.PostRepository,
	follows repository.FollowRepository,
	followCache *cache.FollowGraphCache,
	feedCache *cache.FeedCache,
) *FeedService {
	return &FeedService{
		posts:       posts,
		follows:     follows,
		followCache: followCache,
		feedCache:   feedCache,
	}
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// GetFeed returns one page of the feed for the viewer. viewerID zero means a
// guest. Identical requests within the cache TTL are served from memory.
func (s *FeedService) GetFeed(ctx context.Context, viewerID uint, page, limit int, mode string) (*models.FeedPage, error) {
	// Only the page size has an upper bound. Capping the page number would
	// alias deep pages onto the same offset and repeat posts.
	page = max(page, 1)
	limit = clamp(limit, DefaultFeedLimit, MaxFeedLimit)
	if mode != models.FeedModeFollowing {
		mode = models.FeedModeAll
	}

	viewer := cache.GuestViewer
	if viewerID != 0 {
		viewer = cache.ViewerKey(viewerID)
	}

	key := cache.FeedKey{Viewer: viewer, Page: page, Limit: limit, Mode: mode}
	if cached, ok := s.feedCache.Get(key); ok {
		return cached, nil
	}

	// The follow set drives both following-mode filtering and the
	// isFollowing flag, so it is resolved once per page.
	var following map[uint]struct{}
	if viewerID != 0 {
		var err error
		following, err = s.followSet(ctx, viewerID)
		if err != nil {
			return nil, err
		}
	}

	if mode == models.FeedModeFollowing && len(following) == 0 {
		// Nothing followed means an empty page; skip the post query entirely.
		// Deliberately not cached: the first follow should show up immediately.
		return &models.FeedPage{Page: page, Limit: limit, Posts: []models.FeedPost{}}, nil
	}

	offset := (page - 1) * limit
	var posts []models.Post
	var err error
	if mode == models.FeedModeFollowing {
		ids := make([]uint, 0, len(following))
		for id := range following {
			ids = append(ids, id)
		}
		posts, err = s.posts.ListApprovedByAuthors(ctx, ids, limit, offset)
	} else {
		posts, err = s.posts.ListApproved(ctx, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	feedPosts, err := s.project(ctx, posts, viewerID, following)
	if err != nil {
		return nil, err
	}

	result := &models.FeedPage{Page: page, Limit: limit, Posts: feedPosts}
	s.feedCache.Put(key, result)
	return result, nil
}

// GetReels returns a page of approved video posts plus a hasMore flag.
// Reels pages are not cached; the limit+1 probe keeps pagination cheap.
func (s *FeedService) GetReels(ctx context.Context, viewerID uint, page, limit int) (*models.ReelsPage, error) {
	page = max(page, 1)
	limit = clamp(limit, DefaultReelsLimit, MaxReelsLimit)

	offset := (page - 1) * limit
	posts, err := s.posts.ListApprovedVideos(ctx, limit+1, offset)
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	var following map[uint]struct{}
	if viewerID != 0 {
		if following, err = s.followSet(ctx, viewerID); err != nil {
			return nil, err
		}
	}

	feedPosts, err := s.project(ctx, posts, viewerID, following)
	if err != nil {
		return nil, err
	}

	return &models.ReelsPage{Page: page, Limit: limit, Posts: feedPosts, HasMore: hasMore}, nil
}

// GetPost returns a single post projected for the viewer.
func (s *FeedService) GetPost(ctx context.Context, id uint, viewerID uint) (*models.FeedPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var following map[uint]struct{}
	if viewerID != 0 {
		if following, err = s.followSet(ctx, viewerID); err != nil {
			return nil, err
		}
	}

	projected, err := s.project(ctx, []models.Post{*post}, viewerID, following)
	if err != nil {
		return nil, err
	}
	return &projected[0], nil
}

// followSet returns the viewer's follow set, loading it through the cache.
func (s *FeedService) followSet(ctx context.Context, viewerID uint) (map[uint]struct{}, error) {
	if set, ok := s.followCache.Following(ctx, viewerID); ok {
		return set, nil
	}

	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.followCache.SetFollowing(ctx, viewerID, set)
	return set, nil
}

// project turns store rows into viewer-specific feed posts. The liked lookup
// is one batched query per page, never one per post.
func (s *FeedService) project(ctx context.Context, posts []models.Post, viewerID uint, following map[uint]struct{}) ([]models.FeedPost, error) {
	feedPosts := make([]models.FeedPost, 0, len(posts))

	liked := map[uint]struct{}{}
	if viewerID != 0 && len(posts) > 0 {
		ids := make([]uint, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		likedIDs, err := s.posts.LikedPostIDs(ctx, viewerID, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range likedIDs {
			liked[id] = struct{}{}
		}
	}

	for _, p := range posts {
		_, isLiked := liked[p.ID]
		_, isFollowing := following[p.UserID]
		media := p.Media
		if media == nil {
			media = []string{}
		}
		feedPosts = append(feedPosts, models.FeedPost{
			ID:            p.ID,
			User:          p.Username,
			Title:         p.Title,
			Description:   p.Description,
			Type:          p.Type,
			Media:         media,
			CreatedAt:     p.CreatedAt,
			Views:         p.ViewsCount,
			CommentsCount: p.CommentsCount,
			LikesCount:    p.LikesCount,
			Liked:         isLiked,
			IsFollowing:   isFollowing,
		})
	}
	return feedPosts, nil
}
