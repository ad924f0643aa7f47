package server

import (
	"errors"

	"reelfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetFeed handles GET /api/posts. Query params: page, limit, feed (all or
// following). Anonymous viewers get the all feed with no per-viewer state.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)
	mode := c.Query("feed", models.FeedModeAll)

	feedPage, err := s.feedService.GetFeed(c.Context(), viewerID, page, limit, mode)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(feedPage)
}

// GetReels handles GET /api/posts/reels: approved video posts with a hasMore
// pagination flag.
func (s *Server) GetReels(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)

	reels, err := s.feedService.GetReels(c.Context(), viewerID, page, limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(reels)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)
	post, err := s.feedService.GetPost(c.Context(), id, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(post)
}
