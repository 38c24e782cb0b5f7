package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"prico-realtime/internal/observability"
	"prico-realtime/internal/presence"
)

const defaultTypingWindow = 5 * time.Second

// command is the closed set of work items processed by the run loop.
// Exactly one field is non-nil.
type command struct {
	register      *Session
	deregister    string
	inbound       *inboundEvent
	broadcast     *roomBroadcast
	typingExpired *typingKey
}

type inboundEvent struct {
	connID string
	ev     ClientEvent
}

type roomBroadcast struct {
	roomID string
	ev     ServerEvent
}

type typingKey struct {
	connID string
	roomID string
}

// Relay owns the session registry and fans inbound events out to room
// members. All registry mutation happens on the single Run goroutine, so
// delivery order within a room matches processing order.
type Relay struct {
	log          *log.Logger
	registry     *Registry
	presence     presence.Store
	typingWindow time.Duration

	commands chan command
	stop     chan struct{}
	done     chan struct{}
}

// NewRelay constructs a Relay around an empty registry.
func NewRelay(logger *log.Logger, store presence.Store, typingWindow time.Duration) *Relay {
	if typingWindow <= 0 {
		typingWindow = defaultTypingWindow
	}
	return &Relay{
		log:          logger,
		registry:     NewRegistry(),
		presence:     store,
		typingWindow: typingWindow,
		commands:     make(chan command, 512),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Run processes commands until Shutdown. It must be started exactly once.
func (r *Relay) Run() {
	defer close(r.done)
	for {
		select {
		case cmd := <-r.commands:
			r.handleCommand(cmd)
		case <-r.stop:
			return
		}
	}
}

// Shutdown stops the run loop and waits for it to drain.
func (r *Relay) Shutdown(ctx context.Context) error {
	close(r.stop)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds an authenticated session to the relay.
func (r *Relay) Register(s *Session) {
	r.submit(command{register: s})
}

// Deregister tears down the session for a closed connection.
func (r *Relay) Deregister(connID string) {
	r.submit(command{deregister: connID})
}

// Dispatch hands an inbound client event to the run loop.
func (r *Relay) Dispatch(connID string, ev ClientEvent) {
	r.submit(command{inbound: &inboundEvent{connID: connID, ev: ev}})
}

// Broadcast delivers an event to every current member of a room. Used by
// the REST handlers after persisting a change.
func (r *Relay) Broadcast(roomID string, ev ServerEvent) {
	r.submit(command{broadcast: &roomBroadcast{roomID: roomID, ev: ev}})
}

func (r *Relay) submit(cmd command) bool {
	select {
	case r.commands <- cmd:
		return true
	case <-r.stop:
		return false
	}
}

func (r *Relay) handleCommand(cmd command) {
	switch {
	case cmd.register != nil:
		r.handleRegister(cmd.register)
	case cmd.deregister != "":
		r.handleDisconnect(cmd.deregister)
	case cmd.inbound != nil:
		r.handleEvent(cmd.inbound.connID, cmd.inbound.ev)
	case cmd.broadcast != nil:
		r.deliver(cmd.broadcast.roomID, cmd.broadcast.ev, "")
	case cmd.typingExpired != nil:
		r.handleTypingExpired(cmd.typingExpired.connID, cmd.typingExpired.roomID)
	}
}

func (r *Relay) handleRegister(s *Session) {
	r.registry.Add(s)
	observability.IncWSActive("relay")
	observability.IncWSEvent("relay", "connect")

	if err := r.presence.SetStatus(context.Background(), s.Identity.UserID, presence.StatusOnline); err != nil {
		r.log.Printf("presence set failed user_id=%s: %v", s.Identity.UserID, err)
	}
	r.log.Printf("session registered conn_id=%s user_id=%s", s.ID, s.Identity.UserID)
}

func (r *Relay) handleDisconnect(connID string) {
	s, ok := r.registry.Get(connID)
	if !ok {
		return
	}

	s.cancelAllTyping()
	affected := r.registry.RemoveConnection(connID)
	for _, roomID := range affected {
		r.deliver(roomID, NewServerEvent(TypeUserLeft, MembershipChanged{
			RoomID: roomID,
			Sender: senderFromIdentity(s.Identity),
		}), connID)
	}

	if err := r.presence.Clear(context.Background(), s.Identity.UserID); err != nil {
		r.log.Printf("presence clear failed user_id=%s: %v", s.Identity.UserID, err)
	}

	observability.DecWSActive("relay")
	observability.IncWSEvent("relay", "disconnect")
	r.log.Printf("session removed conn_id=%s user_id=%s rooms=%d", connID, s.Identity.UserID, len(affected))
}

func (r *Relay) handleEvent(connID string, ev ClientEvent) {
	s, ok := r.registry.Get(connID)
	if !ok {
		// Connection already torn down; drop the event.
		return
	}

	switch {
	case ev.Join != nil:
		r.handleJoin(s, ev.Join)
	case ev.Leave != nil:
		r.handleLeave(s, ev.Leave)
	case ev.Send != nil:
		r.handleSend(s, ev.Send)
	case ev.Edit != nil:
		r.handleEdit(s, ev.Edit)
	case ev.Delete != nil:
		r.handleDelete(s, ev.Delete)
	case ev.React != nil:
		r.handleReaction(s, ev.React)
	case ev.TypingStart != nil:
		r.handleTypingStart(s, ev.TypingStart)
	case ev.TypingStop != nil:
		r.handleTypingStop(s, ev.TypingStop)
	case ev.Status != nil:
		r.handleStatus(s, ev.Status)
	default:
		s.queue(errInvalidEvent("empty event"))
	}
}

func (r *Relay) handleJoin(s *Session, ev *JoinRoom) {
	if !r.registry.Join(s.ID, ev.RoomID) {
		// Already a member; join is idempotent.
		return
	}

	observability.IncWSEvent("relay", "join")
	r.deliver(ev.RoomID, NewServerEvent(TypeUserJoined, MembershipChanged{
		RoomID: ev.RoomID,
		Sender: senderFromIdentity(s.Identity),
	}), s.ID)
	r.log.Printf("joined room conn_id=%s user_id=%s room=%s", s.ID, s.Identity.UserID, ev.RoomID)
}

func (r *Relay) handleLeave(s *Session, ev *LeaveRoom) {
	if !r.registry.Leave(s.ID, ev.RoomID) {
		// Not a member; leave is idempotent.
		return
	}

	s.cancelTyping(ev.RoomID)
	observability.IncWSEvent("relay", "leave")
	r.deliver(ev.RoomID, NewServerEvent(TypeUserLeft, MembershipChanged{
		RoomID: ev.RoomID,
		Sender: senderFromIdentity(s.Identity),
	}), s.ID)
	r.log.Printf("left room conn_id=%s user_id=%s room=%s", s.ID, s.Identity.UserID, ev.RoomID)
}

func (r *Relay) handleSend(s *Session, ev *SendMessage) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	observability.IncWSEvent("relay", "message")
	// Message events are delivered to the full room, sender included, so
	// the sender sees its message with the relay-assigned id and timestamp.
	r.deliver(ev.RoomID, NewServerEvent(TypeMessageCreated, MessageCreated{
		ID:          fmt.Sprintf("msg_%s", uuid.NewString()),
		RoomID:      ev.RoomID,
		Content:     ev.Content,
		ReplyTo:     ev.ReplyTo,
		Attachments: ev.Attachments,
		Sender:      senderFromIdentity(s.Identity),
	}), "")
}

func (r *Relay) handleEdit(s *Session, ev *EditMessage) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	observability.IncWSEvent("relay", "edit")
	r.deliver(ev.RoomID, NewServerEvent(TypeMessageEdited, MessageEdited{
		MessageID: ev.MessageID,
		RoomID:    ev.RoomID,
		Content:   ev.Content,
		Sender:    senderFromIdentity(s.Identity),
	}), "")
}

func (r *Relay) handleDelete(s *Session, ev *DeleteMessage) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	observability.IncWSEvent("relay", "delete")
	r.deliver(ev.RoomID, NewServerEvent(TypeMessageDeleted, MessageDeleted{
		MessageID: ev.MessageID,
		RoomID:    ev.RoomID,
		Sender:    senderFromIdentity(s.Identity),
	}), "")
}

func (r *Relay) handleReaction(s *Session, ev *AddReaction) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	observability.IncWSEvent("relay", "reaction")
	r.deliver(ev.RoomID, NewServerEvent(TypeReactionAdded, ReactionAdded{
		MessageID: ev.MessageID,
		RoomID:    ev.RoomID,
		Emoji:     ev.Emoji,
		Sender:    senderFromIdentity(s.Identity),
	}), "")
}

func (r *Relay) handleTypingStart(s *Session, ev *TypingStart) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	deadline := time.Now().Add(r.typingWindow)
	if state, ok := s.typing[ev.RoomID]; ok {
		state.timer.Reset(r.typingWindow)
		state.deadline = deadline
	} else {
		connID, roomID := s.ID, ev.RoomID
		s.typing[ev.RoomID] = &typingState{
			deadline: deadline,
			timer: time.AfterFunc(r.typingWindow, func() {
				r.submit(command{typingExpired: &typingKey{connID: connID, roomID: roomID}})
			}),
		}
	}

	observability.IncWSEvent("relay", "typing_start")
	r.deliver(ev.RoomID, NewServerEvent(TypeUserTypingStart, TypingChanged{
		RoomID: ev.RoomID,
		Sender: senderFromIdentity(s.Identity),
	}), s.ID)
}

func (r *Relay) handleTypingStop(s *Session, ev *TypingStop) {
	if !r.requireMember(s, ev.RoomID) {
		return
	}

	s.cancelTyping(ev.RoomID)
	observability.IncWSEvent("relay", "typing_stop")
	r.deliver(ev.RoomID, NewServerEvent(TypeUserTypingStop, TypingChanged{
		RoomID: ev.RoomID,
		Sender: senderFromIdentity(s.Identity),
	}), s.ID)
}

func (r *Relay) handleTypingExpired(connID, roomID string) {
	s, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	state, ok := s.typing[roomID]
	if !ok {
		// Explicit stop already cleared the indicator.
		return
	}
	if time.Now().Before(state.deadline) {
		// Timer was re-armed by a later typing-start.
		return
	}

	s.cancelTyping(roomID)
	observability.IncWSEvent("relay", "typing_expired")
	r.deliver(roomID, NewServerEvent(TypeUserTypingStop, TypingChanged{
		RoomID: roomID,
		Sender: senderFromIdentity(s.Identity),
	}), s.ID)
}

func (r *Relay) handleStatus(s *Session, ev *UpdateStatus) {
	status := presence.Status(ev.Status)
	if !status.Valid() {
		s.queue(errInvalidStatus(ev.Status))
		return
	}

	if err := r.presence.SetStatus(context.Background(), s.Identity.UserID, status); err != nil {
		r.log.Printf("presence set failed user_id=%s: %v", s.Identity.UserID, err)
	}

	observability.IncWSEvent("relay", "status")
	changed := NewServerEvent(TypeUserStatusChanged, StatusChanged{
		UserID: s.Identity.UserID,
		Status: ev.Status,
	})
	for roomID := range s.rooms {
		r.deliver(roomID, changed, s.ID)
	}
}

// requireMember rejects a room-scoped event from a non-member with an
// error event to the sender only.
func (r *Relay) requireMember(s *Session, roomID string) bool {
	if r.registry.IsMember(s.ID, roomID) {
		return true
	}
	observability.IncWSEvent("relay", "rejected")
	s.queue(errNotAMember(roomID))
	return false
}

// deliver sends the event to every member of the room except the excluded
// connection. A full client queue drops the event; the transport's own
// disconnect detection handles dead peers.
func (r *Relay) deliver(roomID string, ev ServerEvent, excludeConnID string) {
	for _, member := range r.registry.Members(roomID) {
		if member.ID == excludeConnID {
			continue
		}
		if !member.queue(ev) {
			observability.IncWSDropped("relay")
			r.log.Printf("dropped event conn_id=%s room=%s type=%s", member.ID, roomID, ev.Type)
		}
	}
}

type typingState struct {
	timer    *time.Timer
	deadline time.Time
}
