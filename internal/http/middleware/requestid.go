package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key under which the request ID is stored in Fiber's context locals.
	RequestIDLocalKey = "request_id"

	// maxRequestIDLen bounds accepted inbound IDs so arbitrary client input
	// cannot bloat logs or response headers.
	maxRequestIDLen = 64
)

// RequestID ensures every request carries a request ID: an inbound
// X-Request-ID is reused when present and sane, otherwise a UUID is
// generated. The ID is stored in context locals and echoed on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
