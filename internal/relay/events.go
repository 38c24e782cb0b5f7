package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prico-realtime/internal/auth"
)

// Inbound event names recognized on the wire.
const (
	TypeJoinRoom      = "join-room"
	TypeLeaveRoom     = "leave-room"
	TypeSendMessage   = "send-message"
	TypeEditMessage   = "edit-message"
	TypeDeleteMessage = "delete-message"
	TypeAddReaction   = "add-reaction"
	TypeTypingStart   = "typing-start"
	TypeTypingStop    = "typing-stop"
	TypeUpdateStatus  = "update-status"
)

// Outbound event names.
const (
	TypeMessageCreated    = "message-created"
	TypeMessageEdited     = "message-edited"
	TypeMessageDeleted    = "message-deleted"
	TypeReactionAdded     = "reaction-added"
	TypeUserTypingStart   = "user-typing-start"
	TypeUserTypingStop    = "user-typing-stop"
	TypeUserJoined        = "user-joined"
	TypeUserLeft          = "user-left"
	TypeUserStatusChanged = "user-status-changed"
	TypeError             = "error"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrBadPayload   = errors.New("malformed event payload")
)

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

type SendMessage struct {
	RoomID      string   `json:"roomId"`
	Content     string   `json:"content"`
	ReplyTo     string   `json:"replyTo,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type EditMessage struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Content   string `json:"content"`
}

type DeleteMessage struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

type AddReaction struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Emoji     string `json:"emoji"`
}

type TypingStart struct {
	RoomID string `json:"roomId"`
}

type TypingStop struct {
	RoomID string `json:"roomId"`
}

type UpdateStatus struct {
	Status string `json:"status"`
}

// ClientEvent is the closed set of inbound events. Exactly one variant is
// non-nil after a successful decode.
type ClientEvent struct {
	Join        *JoinRoom
	Leave       *LeaveRoom
	Send        *SendMessage
	Edit        *EditMessage
	Delete      *DeleteMessage
	React       *AddReaction
	TypingStart *TypingStart
	TypingStop  *TypingStop
	Status      *UpdateStatus
}

// DecodeClientEvent parses a raw wire frame {"type": ..., "data": {...}} into
// a ClientEvent.
func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return ClientEvent{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	decode := func(dst any) error {
		if len(frame.Data) == 0 {
			return fmt.Errorf("%w: missing data", ErrBadPayload)
		}
		if err := json.Unmarshal(frame.Data, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return nil
	}

	var ev ClientEvent
	var err error
	switch frame.Type {
	case TypeJoinRoom:
		ev.Join = &JoinRoom{}
		err = decode(ev.Join)
	case TypeLeaveRoom:
		ev.Leave = &LeaveRoom{}
		err = decode(ev.Leave)
	case TypeSendMessage:
		ev.Send = &SendMessage{}
		err = decode(ev.Send)
	case TypeEditMessage:
		ev.Edit = &EditMessage{}
		err = decode(ev.Edit)
	case TypeDeleteMessage:
		ev.Delete = &DeleteMessage{}
		err = decode(ev.Delete)
	case TypeAddReaction:
		ev.React = &AddReaction{}
		err = decode(ev.React)
	case TypeTypingStart:
		ev.TypingStart = &TypingStart{}
		err = decode(ev.TypingStart)
	case TypeTypingStop:
		ev.TypingStop = &TypingStop{}
		err = decode(ev.TypingStop)
	case TypeUpdateStatus:
		ev.Status = &UpdateStatus{}
		err = decode(ev.Status)
	default:
		return ClientEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Type)
	}
	if err != nil {
		return ClientEvent{}, err
	}
	return ev, nil
}

// Sender identifies the user who originated a broadcast event.
type Sender struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

func senderFromIdentity(identity auth.Identity) Sender {
	return Sender{
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
	}
}

// ServerEvent is a single outbound frame. Data holds one of the payload
// types below, chosen by the constructors; Timestamp is server-assigned.
type ServerEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type MessageCreated struct {
	ID          string   `json:"id"`
	RoomID      string   `json:"roomId"`
	Content     string   `json:"content"`
	ReplyTo     string   `json:"replyTo,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	Sender      Sender   `json:"sender"`
}

type MessageEdited struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Content   string `json:"content"`
	Sender    Sender `json:"sender"`
}

type MessageDeleted struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Sender    Sender `json:"sender"`
}

type ReactionAdded struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Emoji     string `json:"emoji"`
	Sender    Sender `json:"sender"`
}

type TypingChanged struct {
	RoomID string `json:"roomId"`
	Sender Sender `json:"sender"`
}

type MembershipChanged struct {
	RoomID string `json:"roomId"`
	Sender Sender `json:"sender"`
}

type StatusChanged struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes delivered to the offending sender only.
const (
	CodeNotAMember    = "not-a-member"
	CodeInvalidEvent  = "invalid-event"
	CodeInvalidStatus = "invalid-status"
)

// NewServerEvent wraps a payload in an outbound frame with a
// server-assigned timestamp.
func NewServerEvent(eventType string, data any) ServerEvent {
	return ServerEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC().Round(time.Millisecond),
		Data:      data,
	}
}

func errNotAMember(roomID string) ServerEvent {
	return NewServerEvent(TypeError, ErrorPayload{
		Code:    CodeNotAMember,
		Message: fmt.Sprintf("not a member of room %q", roomID),
	})
}

func errInvalidEvent(message string) ServerEvent {
	return NewServerEvent(TypeError, ErrorPayload{
		Code:    CodeInvalidEvent,
		Message: message,
	})
}

func errInvalidStatus(status string) ServerEvent {
	return NewServerEvent(TypeError, ErrorPayload{
		Code:    CodeInvalidStatus,
		Message: fmt.Sprintf("invalid status %q", status),
	})
}
