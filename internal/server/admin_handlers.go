package server

import (
	"errors"

	"reelfeed/internal/models"
	"reelfeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminListPosts handles GET /api/admin/posts: posts of every status for
// review, newest first.
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", service.DefaultFeedLimit)
	if limit < 1 || limit > service.MaxFeedLimit {
		limit = service.DefaultFeedLimit
	}

	posts, err := s.moderationService.ListAll(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"page": page, "posts": posts})
}

// ApprovePost handles POST /api/admin/posts/:id/approve
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.Approve(c.Context(), postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Post approved"})
}

// AdminDeletePost handles DELETE /api/admin/posts/:id: removes the post, its
// engagement rows and its media files.
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.Delete(c.Context(), postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}
