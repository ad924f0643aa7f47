package repository

import (
	"context"
	"errors"

	"reelfeed/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post and engagement data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListApproved(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListApprovedByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error)
	ListApprovedVideos(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.Post, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Post, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	SetStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error

	Like(ctx context.Context, postID, userID uint) (models.LikeOutcome, int64, error)
	Unlike(ctx context.Context, postID, userID uint) (int64, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uint, limit int) ([]models.Comment, error)
	RecordView(ctx context.Context, postID uint, viewerKey string) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// isUniqueViolation classifies duplicate-key failures across drivers. GORM's
// TranslateError covers most paths; the pgconn check catches raw SQL.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// feedOrder is the canonical feed ordering: newest first, id as a stable
// tie-break for posts created in the same instant.
func feedOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *postRepository) ListApproved(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := feedOrder(r.db.WithContext(ctx).
		Where("status = ?", models.PostStatusApproved)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListApprovedByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := feedOrder(r.db.WithContext(ctx).
		Where("status = ? AND user_id IN ?", models.PostStatusApproved, authorIDs)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListApprovedVideos(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := feedOrder(r.db.WithContext(ctx).
		Where("status = ? AND type = ?", models.PostStatusApproved, models.PostTypeVideo)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := feedOrder(r.db.WithContext(ctx).
		Where("status = ? AND username = ?", models.PostStatusApproved, username)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := feedOrder(r.db.WithContext(ctx)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("user_id = ? AND status = ?", userID, models.PostStatusApproved).
		Count(&count).Error
	return count, err
}

func (r *postRepository) SetStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the post row and its engagement rows. The media files on
// disk are the caller's problem; the repository only owns rows.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostView{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Like inserts the like row and increments the denormalized counter in one
// transaction. A duplicate like is not an error: the insert is gated by the
// unique index, the counter is only bumped when a row was actually created,
// and the caller gets told which case happened plus the current count.
func (r *postRepository) Like(ctx context.Context, postID, userID uint) (models.LikeOutcome, int64, error) {
	outcome := models.LikeAlreadyExists

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{PostID: postID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return nil
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		outcome = models.LikeCreated
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		return outcome, 0, err
	}

	count, err := r.likesCount(ctx, postID)
	return outcome, count, err
}

// Unlike deletes the like row and decrements the counter only when a row was
// actually removed, flooring at zero against historical drift.
func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).
			Where("id = ? AND likes_count > 0", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
	})
	if err != nil {
		return 0, err
	}
	return r.likesCount(ctx, postID)
}

func (r *postRepository) likesCount(ctx context.Context, postID uint) (int64, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select("likes_count").
		Take(&post, postID).Error
	if err != nil {
		return 0, err
	}
	return post.LikesCount, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	return liked, err
}

// AddComment persists the comment and bumps the post's comment counter in the
// same transaction. Validation of the text happens above the repository.
func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
}

func (r *postRepository) ListComments(ctx context.Context, postID uint, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// RecordView counts each viewer key once per post. The membership insert is
// the gate: only the transaction that created the row increments the counter,
// so concurrent first views from one viewer cannot double-count. Returns
// whether this call was the first view.
func (r *postRepository) RecordView(ctx context.Context, postID uint, viewerKey string) (bool, error) {
	first := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := models.PostView{PostID: postID, ViewerKey: viewerKey}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&view)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return nil
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		// The counter update doubles as the existence check: zero rows means
		// there is no such post, and the rollback discards the view row.
		upd := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views_count", gorm.Expr("views_count + 1"))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		first = true
		return nil
	})
	return first, err
}
