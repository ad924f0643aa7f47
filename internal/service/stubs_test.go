package service

import (
	"context"
	"time"

	"reelfeed/internal/cache"
	"reelfeed/internal/models"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn                func(context.Context, *models.Post) error
	getByIDFn               func(context.Context, uint) (*models.Post, error)
	listApprovedFn          func(context.Context, int, int) ([]models.Post, error)
	listApprovedByAuthorsFn func(context.Context, []uint, int, int) ([]models.Post, error)
	listApprovedVideosFn    func(context.Context, int, int) ([]models.Post, error)
	listByUsernameFn        func(context.Context, string, int, int) ([]models.Post, error)
	listAllFn               func(context.Context, int, int) ([]models.Post, error)
	countByUserIDFn         func(context.Context, uint) (int64, error)
	setStatusFn             func(context.Context, uint, string) error
	deleteFn                func(context.Context, uint) error
	likeFn                  func(context.Context, uint, uint) (models.LikeOutcome, int64, error)
	unlikeFn                func(context.Context, uint, uint) (int64, error)
	likedPostIDsFn          func(context.Context, uint, []uint) ([]uint, error)
	addCommentFn            func(context.Context, *models.Comment) error
	listCommentsFn          func(context.Context, uint, int) ([]models.Comment, error)
	recordViewFn            func(context.Context, uint, string) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListApproved(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listApprovedFn(ctx, limit, offset)
}
func (s *postRepoStub) ListApprovedByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error) {
	return s.listApprovedByAuthorsFn(ctx, authorIDs, limit, offset)
}
func (s *postRepoStub) ListApprovedVideos(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listApprovedVideosFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.Post, error) {
	return s.listByUsernameFn(ctx, username, limit, offset)
}
func (s *postRepoStub) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listAllFn(ctx, limit, offset)
}
func (s *postRepoStub) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserIDFn(ctx, userID)
}
func (s *postRepoStub) SetStatus(ctx context.Context, id uint, status string) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Like(ctx context.Context, postID, userID uint) (models.LikeOutcome, int64, error) {
	return s.likeFn(ctx, postID, userID)
}
func (s *postRepoStub) Unlike(ctx context.Context, postID, userID uint) (int64, error) {
	return s.unlikeFn(ctx, postID, userID)
}
func (s *postRepoStub) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.likedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) AddComment(ctx context.Context, comment *models.Comment) error {
	return s.addCommentFn(ctx, comment)
}
func (s *postRepoStub) ListComments(ctx context.Context, postID uint, limit int) ([]models.Comment, error) {
	return s.listCommentsFn(ctx, postID, limit)
}
func (s *postRepoStub) RecordView(ctx context.Context, postID uint, viewerKey string) (bool, error) {
	return s.recordViewFn(ctx, postID, viewerKey)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(context.Context, *models.Post) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Post, error) { return &models.Post{}, nil },
		listApprovedFn: func(context.Context, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		listApprovedByAuthorsFn: func(context.Context, []uint, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		listApprovedVideosFn: func(context.Context, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		listByUsernameFn: func(context.Context, string, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		listAllFn: func(context.Context, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		countByUserIDFn: func(context.Context, uint) (int64, error) { return 0, nil },
		setStatusFn:     func(context.Context, uint, string) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
		likeFn: func(context.Context, uint, uint) (models.LikeOutcome, int64, error) {
			return models.LikeCreated, 1, nil
		},
		unlikeFn:       func(context.Context, uint, uint) (int64, error) { return 0, nil },
		likedPostIDsFn: func(context.Context, uint, []uint) ([]uint, error) { return nil, nil },
		addCommentFn:   func(context.Context, *models.Comment) error { return nil },
		listCommentsFn: func(context.Context, uint, int) ([]models.Comment, error) {
			return []models.Comment{}, nil
		},
		recordViewFn: func(context.Context, uint, string) (bool, error) { return true, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (models.FollowResult, error)
	deleteFn         func(context.Context, uint, uint) error
	existsFn         func(context.Context, uint, uint) (bool, error)
	followingIDsFn   func(context.Context, uint) ([]uint, error)
	followerCountFn  func(context.Context, uint) (int64, error)
	followingCountFn func(context.Context, uint) (int64, error)
	followersFn      func(context.Context, uint, int) ([]models.UserSummary, error)
	followingFn      func(context.Context, uint, int) ([]models.UserSummary, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) (models.FollowResult, error) {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) error {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, followerID)
}
func (s *followRepoStub) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return s.followerCountFn(ctx, userID)
}
func (s *followRepoStub) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followingCountFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return s.followersFn(ctx, userID, limit)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return s.followingFn(ctx, userID, limit)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn: func(context.Context, uint, uint) (models.FollowResult, error) {
			return models.FollowCreated, nil
		},
		deleteFn:         func(context.Context, uint, uint) error { return nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingIDsFn:   func(context.Context, uint) ([]uint, error) { return nil, nil },
		followerCountFn:  func(context.Context, uint) (int64, error) { return 0, nil },
		followingCountFn: func(context.Context, uint) (int64, error) { return 0, nil },
		followersFn: func(context.Context, uint, int) ([]models.UserSummary, error) {
			return []models.UserSummary{}, nil
		},
		followingFn: func(context.Context, uint, int) ([]models.UserSummary, error) {
			return []models.UserSummary{}, nil
		},
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn           func(context.Context, *models.User) error
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	searchFn           func(context.Context, string, int) ([]models.UserSummary, error)
	tokenVersionFn     func(context.Context, uint) (int, error)
	bumpTokenVersionFn func(context.Context, uint) error
	updatePasswordFn   func(context.Context, uint, string) error
	deleteFn           func(context.Context, uint) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	return s.searchFn(ctx, query, limit)
}
func (s *userRepoStub) TokenVersion(ctx context.Context, id uint) (int, error) {
	return s.tokenVersionFn(ctx, id)
}
func (s *userRepoStub) BumpTokenVersion(ctx context.Context, id uint) error {
	return s.bumpTokenVersionFn(ctx, id)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return s.updatePasswordFn(ctx, id, passwordHash)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:  func(context.Context, *models.User) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) {
			return &models.User{}, nil
		},
		searchFn: func(context.Context, string, int) ([]models.UserSummary, error) {
			return []models.UserSummary{}, nil
		},
		tokenVersionFn:     func(context.Context, uint) (int, error) { return 0, nil },
		bumpTokenVersionFn: func(context.Context, uint) error { return nil },
		updatePasswordFn:   func(context.Context, uint, string) error { return nil },
		deleteFn:           func(context.Context, uint) error { return nil },
	}
}

func testCaches() (*cache.FollowGraphCache, *cache.FeedCache) {
	return cache.NewFollowGraphCache(nil, 64, time.Minute),
		cache.NewFeedCache(64, time.Minute)
}
