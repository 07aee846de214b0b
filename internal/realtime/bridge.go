package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bridge relays hub events between nodes over redis pub/sub and a NATS queue
// subscription. Single-node deployments run without one; the hub alone is the
// authoritative fan-out within a process. Events carry the publishing node id
// so a node never re-delivers its own traffic.
type Bridge struct {
	hub         *Hub
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

type bridgeEvent struct {
	Source  string          `json:"source"`
	Room    string          `json:"room"`
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"data"`
	SentAt  time.Time       `json:"sent_at"`
}

// NewBridge creates a relay bound to the hub. Either broker client may be nil.
func NewBridge(hub *Hub, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *Bridge {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":realtime"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".realtime"
	}

	return &Bridge{
		hub:         hub,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "realtime_bridge").Logger(),
		nodeID:      uuid.NewString(),
	}
}

// Start launches the broker consumers. It returns immediately; consumers stop
// when the context is cancelled.
func (b *Bridge) Start(ctx context.Context) {
	if b == nil {
		return
	}
	if b.redis != nil && b.redisStream != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.natsSubject != "" {
		go b.consumeNATS(ctx)
	}
}

// Publish relays a room event to the other nodes. Local fan-out is the hub's
// job; this only covers sessions connected elsewhere.
func (b *Bridge) Publish(ctx context.Context, room string, event Event) {
	if b == nil || (b.redis == nil && b.nats == nil) {
		return
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		b.logger.Warn().Err(err).Str("event", event.Name).Msg("failed to marshal bridge payload")
		return
	}

	wire, err := json.Marshal(bridgeEvent{
		Source:  b.nodeID,
		Room:    room,
		Name:    event.Name,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("event", event.Name).Msg("failed to marshal bridge event")
		return
	}

	if b.redis != nil && b.redisStream != "" {
		if err := b.redis.Publish(ctx, b.redisStream, wire).Err(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to publish bridge event to redis")
		}
	}
	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, wire); err != nil {
			b.logger.Warn().Err(err).Msg("failed to publish bridge event to nats")
		}
	}
}

func (b *Bridge) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		b.handleEvent([]byte(msg.Payload))
	}
}

func (b *Bridge) consumeNATS(ctx context.Context) {
	sub, err := b.nats.QueueSubscribe(b.natsSubject, "eventverse-realtime", func(msg *nats.Msg) {
		b.handleEvent(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats realtime subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
		}
	}()
}

func (b *Bridge) handleEvent(data []byte) {
	var event bridgeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid bridge event")
		return
	}

	if event.Source == b.nodeID {
		return
	}

	var payload any
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Name).Msg("invalid bridge payload")
			return
		}
	}

	b.hub.Publish(event.Room, Event{Name: event.Name, Payload: payload})
}
