package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/dto"
)

// MessageCache keeps the most recent message of each conversation room in
// redis so a session joining a room sees the latest message immediately,
// before any history fetch completes. Nil-safe: a cache without a redis
// client stores and returns nothing.
type MessageCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewMessageCache creates a last-message cache under the given key prefix.
func NewMessageCache(client *redis.Client, channelBase string, ttl time.Duration, logger zerolog.Logger) *MessageCache {
	prefix := ""
	if channelBase != "" {
		prefix = channelBase + ":chat:last"
	}

	return &MessageCache{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "message_cache").Logger(),
	}
}

// Store caches the event as the room's latest message.
func (c *MessageCache) Store(ctx context.Context, room string, event dto.NewMessageEvent) {
	if c == nil || c.redis == nil || c.prefix == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal message for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", c.prefix, room)
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache last message")
	}
}

// Fetch returns the room's cached latest message, if any.
func (c *MessageCache) Fetch(ctx context.Context, room string) (dto.NewMessageEvent, bool) {
	if c == nil || c.redis == nil || c.prefix == "" {
		return dto.NewMessageEvent{}, false
	}

	key := fmt.Sprintf("%s:%s", c.prefix, room)
	result, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return dto.NewMessageEvent{}, false
	}

	var event dto.NewMessageEvent
	if err := json.Unmarshal([]byte(result), &event); err != nil {
		c.logger.Warn().Err(err).Msg("failed to unmarshal cached message")
		return dto.NewMessageEvent{}, false
	}

	return event, true
}
