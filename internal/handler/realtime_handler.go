package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/realtime"
)

// RealtimeHandler exposes the websocket upgrade endpoint and hands accepted
// connections to the session gateway.
type RealtimeHandler struct {
	gateway *realtime.Gateway
	logger  zerolog.Logger
}

// NewRealtimeHandler constructs a realtime handler instance.
func NewRealtimeHandler(gateway *realtime.Gateway, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		gateway: gateway,
		logger:  logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("realtime connection opened")
	h.gateway.ServeConnection(conn)
	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("realtime connection closed")
}
