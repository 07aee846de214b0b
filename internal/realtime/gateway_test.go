package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eventverse/chat-api/internal/dto"
)

func newTestGateway(t *testing.T) (*Gateway, *Hub) {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	gateway := NewGateway(hub, nil, nil, validator.New(), true, zerolog.Nop())
	gateway.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return gateway, hub
}

func frame(t *testing.T, event string, payload any) Frame {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Frame{Event: event, Data: data}
}

func authenticate(t *testing.T, gateway *Gateway, session *Session, userID int64, name string) {
	t.Helper()

	gateway.Dispatch(context.Background(), session, frame(t, EventAuthenticate, dto.AuthenticatePayload{UserID: userID, UserName: name}))
	drain(t, session)
}

func TestAuthenticateJoinsInboxRoomAndAnnouncesPresence(t *testing.T) {
	gateway, hub := newTestGateway(t)
	session, watcher := NewSession(), NewSession()
	hub.Join(watcher, "user-99")

	gateway.Dispatch(context.Background(), session, frame(t, EventAuthenticate, dto.AuthenticatePayload{UserID: 7, UserName: "Alice"}))

	require.Equal(t, 1, hub.RoomSize(UserRoom(7)))

	events := drain(t, watcher)
	require.Len(t, events, 1)
	require.Equal(t, EventUserStatusChange, events[0].Name)

	status, ok := events[0].Payload.(dto.StatusChangeEvent)
	require.True(t, ok)
	require.Equal(t, "online", status.Status)
	require.EqualValues(t, 7, status.UserID)
}

func TestPresenceReachesConnectedUnauthenticatedSessions(t *testing.T) {
	gateway, hub := newTestGateway(t)
	bystander, session := NewSession(), NewSession()
	hub.Register(bystander)
	hub.Register(session)

	gateway.Dispatch(context.Background(), session, frame(t, EventAuthenticate, dto.AuthenticatePayload{UserID: 7, UserName: "Alice"}))

	events := drain(t, bystander)
	require.Len(t, events, 1)
	require.Equal(t, EventUserStatusChange, events[0].Name)

	status, ok := events[0].Payload.(dto.StatusChangeEvent)
	require.True(t, ok)
	require.Equal(t, "online", status.Status)
	require.EqualValues(t, 7, status.UserID)
}

func TestAnonymousSessionsCannotPublish(t *testing.T) {
	gateway, hub := newTestGateway(t)
	anonymous, listener := NewSession(), NewSession()
	hub.Join(listener, ChatRoom("c1"))

	gateway.Dispatch(context.Background(), anonymous, frame(t, EventSendMessage, dto.SendMessagePayload{
		ConversationID: "c1",
		Message:        dto.InboundChatMessage{Content: "sneaky"},
	}))

	require.Empty(t, drain(t, listener))
}

func TestJoinChatNotifiesOthersButNotOrigin(t *testing.T) {
	gateway, hub := newTestGateway(t)
	origin, other := NewSession(), NewSession()
	authenticate(t, gateway, origin, 1, "Alice")
	authenticate(t, gateway, other, 2, "Bob")
	drain(t, origin)
	drain(t, other)

	gateway.Dispatch(context.Background(), other, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))
	drain(t, other)

	gateway.Dispatch(context.Background(), origin, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))

	require.Equal(t, 2, hub.RoomSize(ChatRoom("c1")))
	require.Empty(t, drain(t, origin))

	events := drain(t, other)
	require.Len(t, events, 1)
	require.Equal(t, EventUserJoinedChat, events[0].Name)

	membership, ok := events[0].Payload.(dto.ChatMembershipEvent)
	require.True(t, ok)
	require.EqualValues(t, 1, membership.UserID)
	require.Equal(t, "c1", membership.ConversationID)
}

func TestSendMessageFansOutToSenderAndRoom(t *testing.T) {
	gateway, _ := newTestGateway(t)
	sender, receiver := NewSession(), NewSession()
	authenticate(t, gateway, sender, 1, "Alice")
	authenticate(t, gateway, receiver, 2, "Bob")
	drain(t, sender)
	drain(t, receiver)

	gateway.Dispatch(context.Background(), sender, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))
	gateway.Dispatch(context.Background(), receiver, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))
	drain(t, sender)
	drain(t, receiver)

	gateway.Dispatch(context.Background(), sender, frame(t, EventSendMessage, dto.SendMessagePayload{
		ConversationID: "c1",
		Message:        dto.InboundChatMessage{Content: "hello"},
	}))

	for _, session := range []*Session{sender, receiver} {
		events := drain(t, session)
		require.Len(t, events, 1)
		require.Equal(t, EventNewMessage, events[0].Name)

		payload, ok := events[0].Payload.(dto.NewMessageEvent)
		require.True(t, ok)
		require.Equal(t, "c1", payload.ConversationID)
		require.Equal(t, "hello", payload.Message.Content)
		require.Equal(t, "text", payload.Message.ContentKind)
		require.EqualValues(t, 1, payload.Message.SenderID)
		// The timestamp is server-assigned.
		require.Equal(t, "2026-03-14T09:30:00Z", payload.Message.SentAt)
	}
}

func TestTypingEventsExcludeOrigin(t *testing.T) {
	gateway, _ := newTestGateway(t)
	typist, watcher := NewSession(), NewSession()
	authenticate(t, gateway, typist, 1, "Alice")
	authenticate(t, gateway, watcher, 2, "Bob")

	gateway.Dispatch(context.Background(), typist, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))
	gateway.Dispatch(context.Background(), watcher, frame(t, EventJoinChat, dto.ChatRoomPayload{ConversationID: "c1"}))
	drain(t, typist)
	drain(t, watcher)

	gateway.Dispatch(context.Background(), typist, frame(t, EventTypingStart, dto.ChatRoomPayload{ConversationID: "c1"}))

	require.Empty(t, drain(t, typist))

	events := drain(t, watcher)
	require.Len(t, events, 1)
	require.Equal(t, EventUserTyping, events[0].Name)

	typing, ok := events[0].Payload.(dto.TypingEvent)
	require.True(t, ok)
	require.True(t, typing.IsTyping)

	gateway.Dispatch(context.Background(), typist, frame(t, EventTypingStop, dto.ChatRoomPayload{ConversationID: "c1"}))
	events = drain(t, watcher)
	require.Len(t, events, 1)
	typing, ok = events[0].Payload.(dto.TypingEvent)
	require.True(t, ok)
	require.False(t, typing.IsTyping)
}

func TestCommitteeMessagePublishesCurrentAndLegacyNamesAndAcksSender(t *testing.T) {
	gateway, _ := newTestGateway(t)
	sender, member := NewSession(), NewSession()
	authenticate(t, gateway, sender, 1, "Alice")
	authenticate(t, gateway, member, 2, "Bob")

	gateway.Dispatch(context.Background(), sender, frame(t, EventJoinCommitteeRoom, dto.CommitteeRoomPayload{CommitteeID: 5}))
	gateway.Dispatch(context.Background(), member, frame(t, EventJoinCommitteeRoomLegacy, dto.CommitteeRoomPayload{CommitteeID: 5}))

	gateway.Dispatch(context.Background(), sender, frame(t, EventCommitteeMessage, dto.CommitteeMessagePayload{
		CommitteeID: 5,
		Message:     map[string]any{"text": "meeting at noon"},
	}))

	memberEvents := drain(t, member)
	require.Len(t, memberEvents, 2)
	require.Equal(t, EventCommitteeMessage, memberEvents[0].Name)
	require.Equal(t, EventCommitteeMessageLegacy, memberEvents[1].Name)

	payload, ok := memberEvents[0].Payload.(dto.CommitteeMessageEvent)
	require.True(t, ok)
	require.EqualValues(t, 5, payload.CommitteeID)
	require.Equal(t, "meeting at noon", payload.Message["text"])
	require.EqualValues(t, 1, payload.Message["sender_id"])
	require.Equal(t, "Alice", payload.Message["sender_name"])
	require.Equal(t, "2026-03-14T09:30:00Z", payload.Message["timestamp"])

	senderEvents := drain(t, sender)
	require.Len(t, senderEvents, 3)
	require.Equal(t, EventCommitteeMessageAck, senderEvents[2].Name)

	ack, ok := senderEvents[2].Payload.(dto.CommitteeMessageAck)
	require.True(t, ok)
	require.True(t, ack.OK)
	require.EqualValues(t, 5, ack.CommitteeID)
}

func TestLegacyCommitteeEventsCanBeDisabled(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	gateway := NewGateway(hub, nil, nil, validator.New(), false, zerolog.Nop())

	sender := NewSession()
	authenticate(t, gateway, sender, 1, "Alice")
	gateway.Dispatch(context.Background(), sender, frame(t, EventJoinCommitteeRoom, dto.CommitteeRoomPayload{CommitteeID: 5}))

	gateway.Dispatch(context.Background(), sender, frame(t, EventCommitteeMessage, dto.CommitteeMessagePayload{
		CommitteeID: 5,
		Message:     map[string]any{"text": "hi"},
	}))

	events := drain(t, sender)
	require.Len(t, events, 2)
	require.Equal(t, EventCommitteeMessage, events[0].Name)
	require.Equal(t, EventCommitteeMessageAck, events[1].Name)
}

func TestMalformedPayloadsAreDropped(t *testing.T) {
	gateway, hub := newTestGateway(t)
	session := NewSession()
	authenticate(t, gateway, session, 1, "Alice")

	gateway.Dispatch(context.Background(), session, Frame{Event: EventJoinChat, Data: json.RawMessage(`{"conversation_id": ""}`)})
	gateway.Dispatch(context.Background(), session, Frame{Event: EventSendMessage, Data: json.RawMessage(`not json`)})
	gateway.Dispatch(context.Background(), session, Frame{Event: "no-such-event", Data: nil})

	require.Equal(t, 0, hub.RoomSize(ChatRoom("")))
	require.Empty(t, drain(t, session))
}
