package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eventverse/chat-api/internal/config"
	"github.com/eventverse/chat-api/internal/handler"
	"github.com/eventverse/chat-api/internal/middleware"
	"github.com/eventverse/chat-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ConversationHandler *handler.ConversationHandler
	RealtimeHandler     *handler.RealtimeHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ConversationHandler != nil {
		chat := app.Group("/api/v2/chat",
			jwtMiddleware,
			middleware.RateLimit("chat", 120, time.Minute),
		)
		deps.ConversationHandler.Register(chat)
	}

	// The websocket endpoint authenticates in-band via the authenticate
	// event, so it sits outside the JWT group.
	if deps.RealtimeHandler != nil {
		realtime := app.Group("/api/v2/realtime")
		deps.RealtimeHandler.Register(realtime)
	}
}
