package relay

// Registry tracks live sessions and room membership. It is not safe for
// concurrent use: all mutation happens on the relay run loop, which owns
// it for the lifetime of the process.
type Registry struct {
	sessions map[string]*Session
	rooms    map[string]map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

// Add registers a new session.
func (r *Registry) Add(s *Session) {
	r.sessions[s.ID] = s
}

// Get returns the session for a connection id.
func (r *Registry) Get(connID string) (*Session, bool) {
	s, ok := r.sessions[connID]
	return s, ok
}

// Join adds the connection to a room. Idempotent; reports whether the
// connection was newly added.
func (r *Registry) Join(connID, roomID string) bool {
	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	if s.inRoom(roomID) {
		return false
	}

	s.rooms[roomID] = struct{}{}
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[string]*Session)
	}
	r.rooms[roomID][connID] = s
	return true
}

// Leave removes the connection from a room. Idempotent; reports whether
// the connection was a member.
func (r *Registry) Leave(connID, roomID string) bool {
	s, ok := r.sessions[connID]
	if !ok || !s.inRoom(roomID) {
		return false
	}

	delete(s.rooms, roomID)
	if members, ok := r.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	return true
}

// RemoveConnection drops the session and its memberships, returning the
// rooms it had joined so the caller can notify each one.
func (r *Registry) RemoveConnection(connID string) []string {
	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}

	affected := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		affected = append(affected, roomID)
		if members, ok := r.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.rooms, roomID)
			}
		}
	}

	delete(r.sessions, connID)
	return affected
}

// Members returns the sessions currently joined to a room.
func (r *Registry) Members(roomID string) []*Session {
	members := r.rooms[roomID]
	result := make([]*Session, 0, len(members))
	for _, s := range members {
		result = append(result, s)
	}
	return result
}

// IsMember reports whether the connection has joined the room.
func (r *Registry) IsMember(connID, roomID string) bool {
	s, ok := r.sessions[connID]
	return ok && s.inRoom(roomID)
}

// SessionCount returns the number of live sessions.
func (r *Registry) SessionCount() int {
	return len(r.sessions)
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	return len(r.rooms)
}
