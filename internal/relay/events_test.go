package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, ev ClientEvent)
	}{
		{
			name: "join room",
			raw:  `{"type":"join-room","data":{"roomId":"channel:1"}}`,
			check: func(t *testing.T, ev ClientEvent) {
				require.NotNil(t, ev.Join)
				assert.Equal(t, "channel:1", ev.Join.RoomID)
			},
		},
		{
			name: "send message with attachments",
			raw:  `{"type":"send-message","data":{"roomId":"channel:1","content":"hi","replyTo":"msg_9","attachments":["a.png"]}}`,
			check: func(t *testing.T, ev ClientEvent) {
				require.NotNil(t, ev.Send)
				assert.Equal(t, "hi", ev.Send.Content)
				assert.Equal(t, "msg_9", ev.Send.ReplyTo)
				assert.Equal(t, []string{"a.png"}, ev.Send.Attachments)
			},
		},
		{
			name: "update status",
			raw:  `{"type":"update-status","data":{"status":"away"}}`,
			check: func(t *testing.T, ev ClientEvent) {
				require.NotNil(t, ev.Status)
				assert.Equal(t, "away", ev.Status.Status)
			},
		},
		{
			name: "typing start",
			raw:  `{"type":"typing-start","data":{"roomId":"channel:2"}}`,
			check: func(t *testing.T, ev ClientEvent) {
				require.NotNil(t, ev.TypingStart)
				assert.Equal(t, "channel:2", ev.TypingStart.RoomID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeClientEvent([]byte(tt.raw))
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestDecodeClientEventErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"unknown type", `{"type":"shrug","data":{}}`, ErrUnknownEvent},
		{"empty type", `{"data":{}}`, ErrUnknownEvent},
		{"not json", `not json`, ErrBadPayload},
		{"missing data", `{"type":"join-room"}`, ErrBadPayload},
		{"data wrong shape", `{"type":"join-room","data":[1,2]}`, ErrBadPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClientEvent([]byte(tt.raw))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewServerEvent(t *testing.T) {
	ev := NewServerEvent(TypeUserJoined, MembershipChanged{RoomID: "channel:1"})
	assert.Equal(t, TypeUserJoined, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())
	require.IsType(t, MembershipChanged{}, ev.Data)
}
