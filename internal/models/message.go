package models

import (
	"time"

	"github.com/lib/pq"
)

// Message is a persisted channel message.
type Message struct {
	ID          int            `db:"id" json:"id"`
	ChannelID   int            `db:"channel_id" json:"channel_id"`
	SenderID    string         `db:"sender_id" json:"sender_id"`
	Content     string         `db:"content" json:"content"`
	ReplyToID   *int           `db:"reply_to_id" json:"reply_to_id,omitempty"`
	Attachments pq.StringArray `db:"attachments" json:"attachments,omitempty"`
	EditedAt    *time.Time     `db:"edited_at" json:"edited_at,omitempty"`
	Deleted     bool           `db:"deleted" json:"deleted"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Reaction is an emoji reaction on a persisted message.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
