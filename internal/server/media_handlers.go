package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reelfeed/internal/media"
	"reelfeed/internal/models"
	"reelfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// rangeReader limits reads to the requested byte window and closes the
// underlying file when the transfer finishes.
type rangeReader struct {
	file    *os.File
	limited io.Reader
}

func (r *rangeReader) Read(p []byte) (int, error) { return r.limited.Read(p) }
func (r *rangeReader) Close() error               { return r.file.Close() }

// ServeMedia handles GET /api/media/*: static media with HTTP range support.
// Requests are confined to the configured media root; the sandbox check runs
// before any filesystem access so probing paths leaks nothing.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	requested := c.Params("*")

	path, err := media.ResolveWithin(s.config.MediaRoot, requested)
	if err != nil {
		if errors.Is(err, media.ErrOutsideRoot) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Access denied"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Media", requested))
	}
	size := info.Size()

	file, err := os.Open(path)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, utils.GetMIME(filepath.Ext(path)))
	c.Set(fiber.HeaderAcceptRanges, "bytes")

	// Malformed, unsatisfiable and multi-range headers all degrade to the
	// full file rather than an error.
	if byteRange, ok := media.ParseRange(c.Get(fiber.HeaderRange), size); ok {
		length := byteRange.Length()
		if _, seekErr := file.Seek(byteRange.Start, io.SeekStart); seekErr != nil {
			_ = file.Close()
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(seekErr))
		}

		observability.MediaBytesStreamed.WithLabelValues("partial").Add(float64(length))
		c.Set(fiber.HeaderContentRange, byteRange.ContentRange(size))
		c.Status(fiber.StatusPartialContent)
		c.Context().SetBodyStream(&rangeReader{
			file:    file,
			limited: io.LimitReader(file, length),
		}, int(length))
		return nil
	}

	observability.MediaBytesStreamed.WithLabelValues("full").Add(float64(size))
	c.Set(fiber.HeaderContentLength, fmt.Sprintf("%d", size))
	c.Status(fiber.StatusOK)
	c.Context().SetBodyStream(file, int(size))
	return nil
}
