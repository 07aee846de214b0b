package dto

// Realtime payloads exchanged over the websocket channel. Inbound payloads
// arrive inside a {event, data} frame; outbound payloads are published to hub
// rooms under the event names defined in internal/realtime.

// AuthenticatePayload binds a connection to a user identity.
type AuthenticatePayload struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	UserName string `json:"user_name" validate:"required,min=1,max=128"`
}

// ChatRoomPayload targets a conversation room (join/leave/typing).
type ChatRoomPayload struct {
	ConversationID string `json:"conversation_id" validate:"required,min=1,max=64"`
}

// InboundChatMessage is the client-composed message body on the realtime path.
type InboundChatMessage struct {
	Content     string `json:"content" validate:"required,min=1,max=4000"`
	ContentKind string `json:"content_kind" validate:"omitempty,oneof=text image video"`
}

// SendMessagePayload carries a realtime-path chat message.
type SendMessagePayload struct {
	ConversationID string             `json:"conversation_id" validate:"required,min=1,max=64"`
	Message        InboundChatMessage `json:"message" validate:"required"`
}

// CommitteeRoomPayload targets a committee room.
type CommitteeRoomPayload struct {
	CommitteeID int64 `json:"committee_id" validate:"required,gt=0"`
}

// CommitteeMessagePayload carries a realtime committee message. The message
// body is passed through as-is and annotated server-side with sender identity,
// committee id and a server-assigned timestamp.
type CommitteeMessagePayload struct {
	CommitteeID int64          `json:"committee_id" validate:"required,gt=0"`
	Message     map[string]any `json:"message"`
}

// NewMessageEvent is broadcast to a conversation room for each realtime message.
type NewMessageEvent struct {
	ConversationID string          `json:"conversation_id"`
	Message        RealtimeMessage `json:"message"`
}

// RealtimeMessage is the broadcast form of a chat message. It mirrors
// MessageResponse minus the stored id, since the realtime path does not
// persist by itself.
type RealtimeMessage struct {
	SenderID    int64  `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	Content     string `json:"content"`
	ContentKind string `json:"content_kind"`
	SentAt      string `json:"sent_at"`
}

// ChatMembershipEvent announces a session joining or leaving a chat room.
type ChatMembershipEvent struct {
	UserID         int64  `json:"user_id"`
	UserName       string `json:"user_name"`
	ConversationID string `json:"conversation_id"`
}

// TypingEvent announces a typing-state change to the rest of a room.
type TypingEvent struct {
	UserID         int64  `json:"user_id"`
	UserName       string `json:"user_name"`
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// StatusChangeEvent announces user presence to every other session.
type StatusChangeEvent struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Status   string `json:"status"`
}

// CommitteeMessageEvent is broadcast to a committee room under both the
// current and the legacy event name while legacy consumers remain.
type CommitteeMessageEvent struct {
	CommitteeID int64          `json:"committee_id"`
	Message     map[string]any `json:"message"`
}

// CommitteeMessageAck is returned to the originating session only.
type CommitteeMessageAck struct {
	OK          bool   `json:"ok"`
	CommitteeID int64  `json:"committee_id"`
	MessageID   *int64 `json:"message_id"`
}
