package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"newsletterapi/internal/service"
)

// subscribeForm is the application/x-www-form-urlencoded body of POST /subscriptions.
type subscribeForm struct {
	Name  string `form:"name"`
	Email string `form:"email"`
}

// Subscribe handles POST /subscriptions.
//
// @Summary Subscribe to the newsletter
// @Accept x-www-form-urlencoded
// @Param name formData string true "Subscriber name"
// @Param email formData string true "Subscriber email"
// @Success 201 {object} model.Subscriber
// @Router /subscriptions [post]
func Subscribe(svc service.SubscriptionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form subscribeForm
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "invalid form body")
		}

		sub, err := svc.Subscribe(c.UserContext(), form.Name, form.Email)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidName):
				return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid subscriber name")
			case errors.Is(err, service.ErrInvalidEmail):
				return writeError(c, fiber.StatusBadRequest, "INVALID_EMAIL", "invalid subscriber email")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	}
}

// ConfirmSubscription handles GET /subscriptions/confirm.
//
// @Summary Confirm a pending subscription
// @Param subscription_token query string true "Confirmation token"
// @Success 200
// @Router /subscriptions/confirm [get]
func ConfirmSubscription(svc service.SubscriptionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("subscription_token")
		if token == "" {
			return writeError(c, fiber.StatusBadRequest, "TOKEN_REQUIRED", "subscription_token is required")
		}

		if err := svc.Confirm(c.UserContext(), token); err != nil {
			if errors.Is(err, service.ErrTokenNotFound) {
				return writeError(c, fiber.StatusUnauthorized, "TOKEN_UNKNOWN", "unknown subscription token")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "confirmed"})
	}
}

// ListSubscribers handles GET /subscriptions with limit & offset.
//
// @Summary List subscribers
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} service.SubscriberListResult
// @Router /subscriptions [get]
func ListSubscribers(svc service.SubscriptionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}
