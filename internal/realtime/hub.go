package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/observability"
)

// Hub is the in-memory broadcast fabric. It keeps two indices, room to
// sessions and session to rooms, so a disconnect releases every membership
// without scanning the room table. It persists nothing.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
	log      zerolog.Logger
}

// NewHub creates an empty hub. One hub instance lives for the process
// lifetime and is shared by the session gateway and the services.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
		log:      logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Register makes the hub track a session that has not joined any room yet,
// so process-wide broadcasts reach it from the moment it connects.
// Registering twice is a no-op; ReleaseSession removes the entry.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sessions[session]; !exists {
		h.sessions[session] = make(map[string]struct{})
	}
	h.log.Debug().Str("session_id", session.ID()).Msg("session registered")
}

// Join adds the session to a room. Joining a room twice is a no-op.
func (h *Hub) Join(session *Session, room string) {
	if session == nil || room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*Session]struct{})
	}
	h.rooms[room][session] = struct{}{}

	if _, exists := h.sessions[session]; !exists {
		h.sessions[session] = make(map[string]struct{})
	}
	h.sessions[session][room] = struct{}{}

	observability.RealtimeRoomsActive().Set(float64(len(h.rooms)))
	h.log.Debug().Str("room", room).Str("session_id", session.ID()).Msg("session joined room")
}

// Leave removes the session from a room. Leaving a room the session is not in
// is a no-op.
func (h *Hub) Leave(session *Session, room string) {
	if session == nil || room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(session, room)
	observability.RealtimeRoomsActive().Set(float64(len(h.rooms)))
}

// ReleaseSession removes the session from every room it joined, using the
// session index rather than iterating all rooms.
func (h *Hub) ReleaseSession(session *Session) {
	if session == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.sessions[session] {
		h.leaveLocked(session, room)
	}
	delete(h.sessions, session)
	observability.RealtimeRoomsActive().Set(float64(len(h.rooms)))
	h.log.Debug().Str("session_id", session.ID()).Msg("session released")
}

// Publish delivers the event to every session currently joined to the room,
// sender included. Delivery to a slow session is dropped rather than blocking
// the fan-out.
func (h *Hub) Publish(room string, event Event) {
	h.PublishExcept(room, nil, event)
}

// PublishExcept delivers the event to the room, skipping one session. The
// gateway uses it for membership and typing echoes that exclude the origin.
func (h *Hub) PublishExcept(room string, except *Session, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for session := range h.rooms[room] {
		if session == except {
			continue
		}
		h.deliver(session, room, event)
	}
}

// Broadcast delivers the event to every connected session except the given
// one. Presence changes use it.
func (h *Hub) Broadcast(except *Session, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for session := range h.sessions {
		if session == except {
			continue
		}
		h.deliver(session, "", event)
	}
}

// BroadcastToUser publishes to the user's personal inbox room.
func (h *Hub) BroadcastToUser(userID int64, event Event) {
	h.Publish(UserRoom(userID), event)
}

// Rooms returns the rooms the session currently belongs to.
func (h *Hub) Rooms(session *Session) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.sessions[session]))
	for room := range h.sessions[session] {
		rooms = append(rooms, room)
	}
	return rooms
}

// RoomSize returns the number of sessions joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) leaveLocked(session *Session, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, session)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.sessions[session]; ok {
		delete(rooms, room)
	}
}

func (h *Hub) deliver(session *Session, room string, event Event) {
	if session.Send(event) {
		observability.RealtimeEventsPublished().WithLabelValues(event.Name).Inc()
		return
	}
	h.log.Warn().
		Str("room", room).
		Str("event", event.Name).
		Str("session_id", session.ID()).
		Msg("dropping event for slow session")
	observability.RealtimeEventsDropped().WithLabelValues(event.Name).Inc()
}
