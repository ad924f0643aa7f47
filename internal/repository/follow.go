package repository

import (
	"context"
	"errors"

	"reelfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow-graph data operations.
// Historical rows may carry the followed user's username instead of an id;
// normalization to ids happens here so nothing above sees the legacy shape.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uint) (models.FollowResult, error)
	Delete(ctx context.Context, followerID, followingID uint) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowingIDs(ctx context.Context, followerID uint) ([]uint, error)
	FollowerCount(ctx context.Context, userID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
	Followers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error)
	Following(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge, reporting whether it already existed instead of
// surfacing the conflict as an error.
func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) (models.FollowResult, error) {
	follow := models.Follow{
		FollowerID:  followerID,
		FollowingID: &followingID,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return models.FollowAlreadyExists, nil
		}
		return models.FollowAlreadyExists, res.Error
	}
	if res.RowsAffected == 0 {
		return models.FollowAlreadyExists, nil
	}
	return models.FollowCreated, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// FollowingIDs returns the ids of everyone followerID follows. Rows that
// predate id-based edges hold only a username; those are resolved against
// the users table here, and unresolvable usernames (deleted accounts) are
// dropped silently.
func (r *followRepository) FollowingIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ?", followerID).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(follows))
	var legacyNames []string
	for _, f := range follows {
		if f.FollowingID != nil {
			ids = append(ids, *f.FollowingID)
			continue
		}
		if f.FollowingUsername != "" {
			legacyNames = append(legacyNames, f.FollowingUsername)
		}
	}

	if len(legacyNames) > 0 {
		var resolved []uint
		err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("username IN ?", legacyNames).
			Pluck("id", &resolved).Error
		if err != nil {
			return nil, err
		}
		ids = append(ids, resolved...)
	}

	return dedupeIDs(ids), nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *followRepository) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *followRepository) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *followRepository) Following(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ErrSelfFollow is returned by callers that reject following yourself before
// the edge ever reaches the store.
var ErrSelfFollow = errors.New("cannot follow yourself")
