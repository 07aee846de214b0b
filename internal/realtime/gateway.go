package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/dto"
	"github.com/eventverse/chat-api/internal/observability"
)

const gatewayPingInterval = 30 * time.Second

// Frame is the wire envelope for inbound client events.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Gateway owns the per-connection lifecycle: it maps a websocket connection to
// a session, walks the session through its state machine and bridges inbound
// events to the hub. The realtime channel is best effort; malformed frames and
// conversation-scoped events from anonymous sessions are logged and dropped,
// never answered with an error. Durable persistence happens on the HTTP
// surface, which authenticates independently.
type Gateway struct {
	hub                   *Hub
	bridge                *Bridge
	cache                 *MessageCache
	validator             *validator.Validate
	logger                zerolog.Logger
	legacyCommitteeEvents bool
	now                   func() time.Time
}

// NewGateway creates a session gateway bound to the hub. bridge and cache may
// be nil.
func NewGateway(hub *Hub, bridge *Bridge, cache *MessageCache, validate *validator.Validate, legacyCommitteeEvents bool, logger zerolog.Logger) *Gateway {
	return &Gateway{
		hub:                   hub,
		bridge:                bridge,
		cache:                 cache,
		validator:             validate,
		logger:                logger.With().Str("component", "session_gateway").Logger(),
		legacyCommitteeEvents: legacyCommitteeEvents,
		now:                   time.Now,
	}
}

// ServeConnection runs the reader and writer loops for one connection and
// blocks until the connection closes.
func (g *Gateway) ServeConnection(conn *websocket.Conn) {
	session := NewSession()
	g.hub.Register(session)
	observability.RealtimeSessionsActive().Inc()

	defer func() {
		g.teardown(session)
		observability.RealtimeSessionsActive().Dec()
	}()

	go g.writer(conn, session)
	g.reader(conn, session)
}

// Dispatch routes one inbound frame. Exposed to the reader loop and to tests;
// it never returns an error to the client.
func (g *Gateway) Dispatch(ctx context.Context, session *Session, frame Frame) {
	observability.RealtimeEventsReceived().WithLabelValues(frame.Event).Inc()

	switch frame.Event {
	case EventAuthenticate:
		g.handleAuthenticate(session, frame.Data)
	case EventJoinChat:
		g.handleJoinChat(ctx, session, frame.Data)
	case EventLeaveChat:
		g.handleLeaveChat(session, frame.Data)
	case EventSendMessage:
		g.handleSendMessage(ctx, session, frame.Data)
	case EventTypingStart:
		g.handleTyping(session, frame.Data, true)
	case EventTypingStop:
		g.handleTyping(session, frame.Data, false)
	case EventUserOnline:
		g.handleUserOnline(session)
	case EventJoinCommitteeRoom, EventJoinCommitteeRoomLegacy:
		g.handleJoinCommitteeRoom(session, frame.Data)
	case EventCommitteeMessage:
		g.handleCommitteeMessage(ctx, session, frame.Data)
	default:
		g.logger.Debug().Str("event", frame.Event).Msg("ignoring unknown realtime event")
	}
}

func (g *Gateway) handleAuthenticate(session *Session, data json.RawMessage) {
	var payload dto.AuthenticatePayload
	if !g.decode(data, &payload, EventAuthenticate) {
		return
	}

	session.Authenticate(payload.UserID, payload.UserName)
	g.hub.Join(session, UserRoom(payload.UserID))
	g.hub.Broadcast(session, Event{
		Name: EventUserStatusChange,
		Payload: dto.StatusChangeEvent{
			UserID:   payload.UserID,
			UserName: payload.UserName,
			Status:   "online",
		},
	})

	g.logger.Info().
		Int64("user_id", payload.UserID).
		Str("session_id", session.ID()).
		Msg("session authenticated")
}

func (g *Gateway) handleJoinChat(ctx context.Context, session *Session, data json.RawMessage) {
	userID, userName, ok := g.requireIdentity(session, EventJoinChat)
	if !ok {
		return
	}

	var payload dto.ChatRoomPayload
	if !g.decode(data, &payload, EventJoinChat) {
		return
	}

	room := ChatRoom(payload.ConversationID)
	g.hub.Join(session, room)
	g.hub.PublishExcept(room, session, Event{
		Name: EventUserJoinedChat,
		Payload: dto.ChatMembershipEvent{
			UserID:         userID,
			UserName:       userName,
			ConversationID: payload.ConversationID,
		},
	})

	if cached, ok := g.cache.Fetch(ctx, room); ok {
		session.Send(Event{Name: EventNewMessage, Payload: cached})
	}
}

func (g *Gateway) handleLeaveChat(session *Session, data json.RawMessage) {
	userID, userName, ok := g.requireIdentity(session, EventLeaveChat)
	if !ok {
		return
	}

	var payload dto.ChatRoomPayload
	if !g.decode(data, &payload, EventLeaveChat) {
		return
	}

	room := ChatRoom(payload.ConversationID)
	g.hub.Leave(session, room)
	g.hub.PublishExcept(room, session, Event{
		Name: EventUserLeftChat,
		Payload: dto.ChatMembershipEvent{
			UserID:         userID,
			UserName:       userName,
			ConversationID: payload.ConversationID,
		},
	})
}

func (g *Gateway) handleSendMessage(ctx context.Context, session *Session, data json.RawMessage) {
	userID, userName, ok := g.requireIdentity(session, EventSendMessage)
	if !ok {
		return
	}

	var payload dto.SendMessagePayload
	if !g.decode(data, &payload, EventSendMessage) {
		return
	}

	kind := payload.Message.ContentKind
	if kind == "" {
		kind = "text"
	}

	event := dto.NewMessageEvent{
		ConversationID: payload.ConversationID,
		Message: dto.RealtimeMessage{
			SenderID:    userID,
			SenderName:  userName,
			Content:     payload.Message.Content,
			ContentKind: kind,
			SentAt:      g.now().UTC().Format(time.RFC3339Nano),
		},
	}

	room := ChatRoom(payload.ConversationID)
	hubEvent := Event{Name: EventNewMessage, Payload: event}
	g.hub.Publish(room, hubEvent)
	g.bridge.Publish(ctx, room, hubEvent)
	g.cache.Store(ctx, room, event)
}

func (g *Gateway) handleTyping(session *Session, data json.RawMessage, isTyping bool) {
	userID, userName, ok := g.requireIdentity(session, EventTypingStart)
	if !ok {
		return
	}

	var payload dto.ChatRoomPayload
	if !g.decode(data, &payload, EventTypingStart) {
		return
	}

	g.hub.PublishExcept(ChatRoom(payload.ConversationID), session, Event{
		Name: EventUserTyping,
		Payload: dto.TypingEvent{
			UserID:         userID,
			UserName:       userName,
			ConversationID: payload.ConversationID,
			IsTyping:       isTyping,
		},
	})
}

func (g *Gateway) handleUserOnline(session *Session) {
	userID, userName, ok := g.requireIdentity(session, EventUserOnline)
	if !ok {
		return
	}

	g.hub.Broadcast(session, Event{
		Name: EventUserStatusChange,
		Payload: dto.StatusChangeEvent{
			UserID:   userID,
			UserName: userName,
			Status:   "online",
		},
	})
}

func (g *Gateway) handleJoinCommitteeRoom(session *Session, data json.RawMessage) {
	if _, _, ok := g.requireIdentity(session, EventJoinCommitteeRoom); !ok {
		return
	}

	var payload dto.CommitteeRoomPayload
	if !g.decode(data, &payload, EventJoinCommitteeRoom) {
		return
	}

	g.hub.Join(session, CommitteeRoom(payload.CommitteeID))
}

func (g *Gateway) handleCommitteeMessage(ctx context.Context, session *Session, data json.RawMessage) {
	userID, userName, ok := g.requireIdentity(session, EventCommitteeMessage)
	if !ok {
		return
	}

	var payload dto.CommitteeMessagePayload
	if !g.decode(data, &payload, EventCommitteeMessage) {
		return
	}

	message := make(map[string]any, len(payload.Message)+4)
	for key, value := range payload.Message {
		message[key] = value
	}
	message["sender_id"] = userID
	message["sender_name"] = userName
	message["committee_id"] = payload.CommitteeID
	message["timestamp"] = g.now().UTC().Format(time.RFC3339Nano)

	event := dto.CommitteeMessageEvent{
		CommitteeID: payload.CommitteeID,
		Message:     message,
	}

	room := CommitteeRoom(payload.CommitteeID)
	current := Event{Name: EventCommitteeMessage, Payload: event}
	g.hub.Publish(room, current)
	g.bridge.Publish(ctx, room, current)

	// Legacy consumers listen on the old event name until they are retired.
	if g.legacyCommitteeEvents {
		legacy := Event{Name: EventCommitteeMessageLegacy, Payload: event}
		g.hub.Publish(room, legacy)
		g.bridge.Publish(ctx, room, legacy)
	}

	session.Send(Event{
		Name: EventCommitteeMessageAck,
		Payload: dto.CommitteeMessageAck{
			OK:          true,
			CommitteeID: payload.CommitteeID,
			MessageID:   nil,
		},
	})
}

func (g *Gateway) reader(conn *websocket.Conn, session *Session) {
	ctx := context.Background()

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			g.logger.Debug().Err(err).Str("session_id", session.ID()).Msg("gateway read loop ended")
			return
		}
		g.Dispatch(ctx, session, frame)
	}
}

func (g *Gateway) writer(conn *websocket.Conn, session *Session) {
	defer session.Close()

	for {
		select {
		case event := <-session.Outbound():
			if err := conn.WriteJSON(event); err != nil {
				g.logger.Debug().Err(err).Str("session_id", session.ID()).Msg("gateway write loop ended")
				return
			}
		case <-time.After(gatewayPingInterval):
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				g.logger.Debug().Err(err).Str("session_id", session.ID()).Msg("gateway ping failed")
				return
			}
		case <-session.Closed():
			return
		}
	}
}

func (g *Gateway) teardown(session *Session) {
	if userID, userName, ok := session.Identity(); ok {
		g.hub.Broadcast(session, Event{
			Name: EventUserStatusChange,
			Payload: dto.StatusChangeEvent{
				UserID:   userID,
				UserName: userName,
				Status:   "offline",
			},
		})
	}

	g.hub.ReleaseSession(session)
	session.Close()
}

func (g *Gateway) decode(data json.RawMessage, target any, event string) bool {
	if err := json.Unmarshal(data, target); err != nil {
		g.logger.Warn().Err(err).Str("event", event).Msg("dropping malformed realtime payload")
		return false
	}
	if err := g.validator.Struct(target); err != nil {
		g.logger.Warn().Err(err).Str("event", event).Msg("dropping invalid realtime payload")
		return false
	}
	return true
}

func (g *Gateway) requireIdentity(session *Session, event string) (int64, string, bool) {
	userID, userName, ok := session.Identity()
	if !ok {
		g.logger.Debug().Str("event", event).Str("session_id", session.ID()).Msg("ignoring event from anonymous session")
		return 0, "", false
	}
	return userID, userName, true
}
