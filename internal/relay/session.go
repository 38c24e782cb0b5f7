package relay

import (
	"time"

	"prico-realtime/internal/auth"
)

// Sink delivers outbound events to one connection. Queue must not block;
// it reports false when the event was dropped.
type Sink interface {
	Queue(ev ServerEvent) bool
}

// Session is the in-memory record for one live connection. It is owned by
// the Registry and mutated only from the relay run loop.
type Session struct {
	ID          string
	Identity    auth.Identity
	ConnectedAt time.Time

	sink  Sink
	rooms map[string]struct{}
	// typing holds one auto-stop timer per room the user is typing in.
	// Timers are canceled by an explicit stop, by leaving the room, and
	// during connection teardown.
	typing map[string]*typingState
}

// NewSession creates a session for an authenticated connection.
func NewSession(id string, identity auth.Identity, sink Sink) *Session {
	return &Session{
		ID:          id,
		Identity:    identity,
		ConnectedAt: time.Now(),
		sink:        sink,
		rooms:       make(map[string]struct{}),
		typing:      make(map[string]*typingState),
	}
}

func (s *Session) queue(ev ServerEvent) bool {
	if s.sink == nil {
		return false
	}
	return s.sink.Queue(ev)
}

func (s *Session) inRoom(roomID string) bool {
	_, ok := s.rooms[roomID]
	return ok
}

// cancelTyping stops and removes the auto-stop timer for one room,
// reporting whether a timer was pending.
func (s *Session) cancelTyping(roomID string) bool {
	state, ok := s.typing[roomID]
	if !ok {
		return false
	}
	state.timer.Stop()
	delete(s.typing, roomID)
	return true
}

// cancelAllTyping stops every pending auto-stop timer. Part of teardown.
func (s *Session) cancelAllTyping() {
	for roomID, state := range s.typing {
		state.timer.Stop()
		delete(s.typing, roomID)
	}
}
