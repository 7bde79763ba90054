package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"newsletterapi/internal/auth"
	"newsletterapi/internal/config"
)

// BasicAuth guards admin endpoints with HTTP Basic auth.
// The configured password is an argon2id PHC hash; the username comparison
// is constant time. Responses for bad or missing credentials carry a
// WWW-Authenticate challenge and go through the global error handler.
func BasicAuth(cfg config.AdminConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username, password, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return challenge(c)
		}

		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
		passMatch, err := auth.VerifyPassword(cfg.PasswordHash, password)
		if err != nil || !userMatch || !passMatch {
			return challenge(c)
		}

		return c.Next()
	}
}

func challenge(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="admin"`)
	return fiber.ErrUnauthorized
}

func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}
