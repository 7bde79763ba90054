package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"newsletterapi/internal/service"
)

// RouteDeps bundles everything the route table needs.
// AdminGuard protects the admin endpoints; SubscribeLimiter rate limits the
// public subscribe endpoint. Either may be nil to disable that middleware.
type RouteDeps struct {
	DB            *sql.DB
	Subscriptions service.SubscriptionService
	Newsletters   service.NewsletterService

	AdminGuard       fiber.Handler
	SubscribeLimiter fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; anything interesting lives in the services.
func RegisterRoutes(app *fiber.App, deps RouteDeps) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoints: readiness (DB ping) and plain liveness
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	// Public subscription endpoints
	subscribe := []fiber.Handler{}
	if deps.SubscribeLimiter != nil {
		subscribe = append(subscribe, deps.SubscribeLimiter)
	}
	subscribe = append(subscribe, Subscribe(deps.Subscriptions))
	app.Post("/subscriptions", subscribe...)
	app.Get("/subscriptions/confirm", ConfirmSubscription(deps.Subscriptions))

	// Admin endpoints
	admin := app.Group("")
	if deps.AdminGuard != nil {
		admin = app.Group("", deps.AdminGuard)
	}
	admin.Get("/subscriptions", ListSubscribers(deps.Subscriptions))
	admin.Post("/newsletters", PublishIssue(deps.Newsletters))
	admin.Get("/newsletters/:id", GetIssue(deps.Newsletters))
	admin.Get("/newsletters/:id/archive", GetIssueArchive(deps.Newsletters))
}
