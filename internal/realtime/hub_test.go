package realtime

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, session *Session) []Event {
	t.Helper()

	events := make([]Event, 0)
	for {
		select {
		case event := <-session.Outbound():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestPublishDeliversToEveryRoomMember(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b, outsider := NewSession(), NewSession(), NewSession()

	hub.Join(a, "chat-1")
	hub.Join(b, "chat-1")
	hub.Join(outsider, "chat-2")

	hub.Publish("chat-1", Event{Name: "ping"})

	require.Len(t, drain(t, a), 1)
	require.Len(t, drain(t, b), 1)
	require.Empty(t, drain(t, outsider))
}

func TestPublishExceptSkipsOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	origin, other := NewSession(), NewSession()

	hub.Join(origin, "chat-1")
	hub.Join(other, "chat-1")

	hub.PublishExcept("chat-1", origin, Event{Name: "typing"})

	require.Empty(t, drain(t, origin))
	require.Len(t, drain(t, other), 1)
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := NewSession()

	hub.Join(session, "chat-1")
	hub.Join(session, "chat-1")
	require.Equal(t, 1, hub.RoomSize("chat-1"))

	hub.Publish("chat-1", Event{Name: "ping"})
	require.Len(t, drain(t, session), 1)
}

func TestReleaseSessionLeavesEveryRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session, peer := NewSession(), NewSession()

	hub.Join(session, "chat-1")
	hub.Join(session, "committee-5")
	hub.Join(peer, "chat-1")

	hub.ReleaseSession(session)

	require.Equal(t, 1, hub.RoomSize("chat-1"))
	require.Equal(t, 0, hub.RoomSize("committee-5"))
	require.Empty(t, hub.Rooms(session))

	hub.Publish("chat-1", Event{Name: "ping"})
	require.Empty(t, drain(t, session))
	require.Len(t, drain(t, peer), 1)
}

func TestBroadcastReachesAllSessionsExceptOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	origin, other := NewSession(), NewSession()

	hub.Join(origin, "user-1")
	hub.Join(other, "user-2")

	hub.Broadcast(origin, Event{Name: "user-status-change"})

	require.Empty(t, drain(t, origin))
	require.Len(t, drain(t, other), 1)
}

func TestBroadcastReachesRegisteredSessionsWithoutRooms(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	origin, idle := NewSession(), NewSession()
	hub.Register(origin)
	hub.Register(idle)
	hub.Register(idle)

	hub.Broadcast(origin, Event{Name: "user-status-change"})

	require.Empty(t, drain(t, origin))
	require.Len(t, drain(t, idle), 1)

	hub.ReleaseSession(idle)
	hub.Broadcast(origin, Event{Name: "user-status-change"})
	require.Empty(t, drain(t, idle))
}

func TestSlowSessionDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	session := NewSession()
	hub.Join(session, "chat-1")

	for i := 0; i < sessionSendBufferSize+5; i++ {
		hub.Publish("chat-1", Event{Name: "burst"})
	}

	require.Len(t, drain(t, session), sessionSendBufferSize)
}

func TestClosedSessionRejectsSends(t *testing.T) {
	session := NewSession()
	session.Close()
	session.Close()

	require.False(t, session.Send(Event{Name: "late"}))
}

func TestSessionIdentityLifecycle(t *testing.T) {
	session := NewSession()

	_, _, ok := session.Identity()
	require.False(t, ok)

	session.Authenticate(42, "Alice")
	userID, userName, ok := session.Identity()
	require.True(t, ok)
	require.EqualValues(t, 42, userID)
	require.Equal(t, "Alice", userName)
}
