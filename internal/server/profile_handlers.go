package server

import (
	"context"
	"errors"

	"reelfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	userSearchLimit = 20
	followListLimit = 100
	userPostsLimit  = 50
)

// GetProfile handles GET /api/users/:username: public profile plus counters.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", username))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	followers, err := s.followRepo.FollowerCount(c.Context(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	following, err := s.followRepo.FollowingCount(c.Context(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	posts, err := s.postRepo.CountByUserID(c.Context(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	isFollowing := false
	if viewerID, ok := s.optionalUserID(c); ok && viewerID != user.ID {
		if isFollowing, err = s.followRepo.Exists(c.Context(), viewerID, user.ID); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{
		"user":           user,
		"followersCount": followers,
		"followingCount": following,
		"postsCount":     posts,
		"isFollowing":    isFollowing,
	})
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", userPostsLimit)
	if limit < 1 || limit > userPostsLimit {
		limit = userPostsLimit
	}

	posts, err := s.postRepo.ListByUsername(c.Context(), username, limit, (page-1)*limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"page": page, "limit": limit, "posts": posts})
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	return s.respondFollowList(c, s.followRepo.Followers, "followers")
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	return s.respondFollowList(c, s.followRepo.Following, "following")
}

func (s *Server) respondFollowList(
	c *fiber.Ctx,
	list func(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error),
	key string,
) error {
	username := c.Params("username")

	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", username))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	users, err := list(c.Context(), user.ID, followListLimit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{key: users})
}

// SearchUsers handles GET /api/users/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	users, err := s.userRepo.Search(c.Context(), query, userSearchLimit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"users": users})
}
