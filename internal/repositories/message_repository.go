package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"prico-realtime/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("user does not own message")
)

// MessageRepository abstracts message and reaction persistence.
type MessageRepository interface {
	CreateMessage(ctx context.Context, channelID int, senderID, content string, replyToID *int, attachments []string) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListChannelMessages(ctx context.Context, channelID, limit, beforeID int) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID int, senderID, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int, senderID string) error
	AddReaction(ctx context.Context, messageID int, userID, emoji string) (models.Reaction, error)
	ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a new message in a channel.
func (r *MessageRepo) CreateMessage(ctx context.Context, channelID int, senderID, content string, replyToID *int, attachments []string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (channel_id, sender_id, content, reply_to_id, attachments)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, channel_id, sender_id, content, reply_to_id, attachments, edited_at, deleted, created_at`,
		channelID, senderID, content, replyToID, pq.StringArray(attachments)).StructScan(&msg)
	return msg, err
}

// GetMessage fetches a single message by id.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, channel_id, sender_id, content, reply_to_id, attachments, edited_at, deleted, created_at
         FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListChannelMessages returns up to limit messages in a channel, newest
// first. A beforeID of 0 means start from the latest message.
func (r *MessageRepo) ListChannelMessages(ctx context.Context, channelID, limit, beforeID int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var msgs []models.Message
	var err error
	if beforeID > 0 {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT id, channel_id, sender_id, content, reply_to_id, attachments, edited_at, deleted, created_at
             FROM messages WHERE channel_id=$1 AND id < $2 AND deleted=false
             ORDER BY id DESC LIMIT $3`, channelID, beforeID, limit)
	} else {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT id, channel_id, sender_id, content, reply_to_id, attachments, edited_at, deleted, created_at
             FROM messages WHERE channel_id=$1 AND deleted=false
             ORDER BY id DESC LIMIT $2`, channelID, limit)
	}
	return msgs, err
}

// EditMessage updates a message's content. Only the original sender may
// edit, and deleted messages stay immutable.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, senderID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$1, edited_at=now()
         WHERE id=$2 AND sender_id=$3 AND deleted=false
         RETURNING id, channel_id, sender_id, content, reply_to_id, attachments, edited_at, deleted, created_at`,
		content, messageID, senderID).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetMessage(ctx, messageID); getErr != nil {
			return models.Message{}, getErr
		}
		return models.Message{}, ErrNotMessageOwner
	}
	return msg, err
}

// DeleteMessage soft-deletes a message. Only the original sender may
// delete.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int, senderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted=true WHERE id=$1 AND sender_id=$2 AND deleted=false`,
		messageID, senderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetMessage(ctx, messageID); getErr != nil {
			return getErr
		}
		return ErrNotMessageOwner
	}
	return nil
}

// AddReaction records an emoji reaction on a message. Re-adding the
// same reaction returns the existing row.
func (r *MessageRepo) AddReaction(ctx context.Context, messageID int, userID, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         ON CONFLICT (message_id, user_id, emoji) DO UPDATE SET emoji=EXCLUDED.emoji
         RETURNING id, message_id, user_id, emoji, created_at`,
		messageID, userID, emoji).StructScan(&reaction)
	return reaction, err
}

// ListReactions returns all reactions on a message.
func (r *MessageRepo) ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT id, message_id, user_id, emoji, created_at FROM message_reactions
         WHERE message_id=$1 ORDER BY id`, messageID)
	return reactions, err
}
