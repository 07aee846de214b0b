package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/eventverse/chat-api/internal/middleware"
)

func userIDFromContext(c *fiber.Ctx) int64 {
	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case int64:
			return id
		case int:
			return int64(id)
		case float64:
			return int64(id)
		}
	}
	return 0
}

func parseIDParam(c *fiber.Ctx, key string) (int64, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return parsed, nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
