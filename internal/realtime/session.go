package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const sessionSendBufferSize = 32

// Session is one websocket connection's hub identity. It starts anonymous and
// acquires a user identity on the authenticate event.
type Session struct {
	id     string
	send   chan Event
	closed chan struct{}
	once   sync.Once

	mu            sync.RWMutex
	userID        int64
	userName      string
	authenticated bool
}

// NewSession creates an anonymous session with a buffered outbound queue.
func NewSession() *Session {
	return &Session{
		id:     uuid.NewString(),
		send:   make(chan Event, sessionSendBufferSize),
		closed: make(chan struct{}),
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string {
	return s.id
}

// Authenticate attaches a user identity to the session.
func (s *Session) Authenticate(userID int64, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.userName = userName
	s.authenticated = true
}

// Identity returns the attached user id and display name. ok is false while
// the session is anonymous.
func (s *Session) Identity() (userID int64, userName string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userName, s.authenticated
}

// Send queues an event for the writer loop. It reports false when the session
// is closed or its queue is full; callers treat that as a drop.
func (s *Session) Send(event Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}

	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// Outbound exposes the event queue consumed by the writer loop.
func (s *Session) Outbound() <-chan Event {
	return s.send
}

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.closed)
	})
}

// Closed reports session termination to reader and writer loops.
func (s *Session) Closed() <-chan struct{} {
	return s.closed
}
