package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"newsletterapi/internal/service"
)

// publishRequest is the JSON body of POST /newsletters.
type publishRequest struct {
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	HTMLContent string `json:"html_content"`
}

// PublishIssue handles POST /newsletters.
//
// Delivery happens asynchronously, so success is 202 with the pending count.
//
// @Summary Publish a newsletter issue to all confirmed subscribers
// @Accept json
// @Param issue body publishRequest true "Issue content"
// @Success 202 {object} service.IssueResult
// @Router /newsletters [post]
func PublishIssue(svc service.NewsletterService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req publishRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid json body")
		}

		res, err := svc.Publish(c.UserContext(), req.Title, req.TextContent, req.HTMLContent)
		if err != nil {
			if errors.Is(err, service.ErrIssueContentMissing) {
				return writeError(c, fiber.StatusBadRequest, "CONTENT_REQUIRED", "title, text_content and html_content are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusAccepted).JSON(res)
	}
}

// GetIssue handles GET /newsletters/:id.
//
// @Summary Get a newsletter issue with its delivery stats
// @Param id path string true "Issue ID"
// @Success 200 {object} service.IssueResult
// @Router /newsletters/{id} [get]
func GetIssue(svc service.NewsletterService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrIssueNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "newsletter issue not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetIssueArchive handles GET /newsletters/:id/archive.
//
// @Summary Get a short-lived download URL for an issue's archived HTML
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]string
// @Router /newsletters/{id}/archive [get]
func GetIssueArchive(svc service.NewsletterService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		url, err := svc.ArchiveURL(c.UserContext(), id)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrIssueNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "newsletter issue not found")
			case errors.Is(err, service.ErrArchiveNotFound):
				return writeError(c, fiber.StatusNotFound, "ARCHIVE_NOT_FOUND", "issue has no archived copy")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
