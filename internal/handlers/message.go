package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prico-realtime/internal/models"
	"prico-realtime/internal/relay"
	"prico-realtime/internal/repositories"
	"prico-realtime/internal/telemetry"
)

// MessageHandler manages persisted channel message endpoints. Writes are
// broadcast to the channel's relay room after the database commit so
// socket clients converge with the REST view.
type MessageHandler struct {
	communityRepo repositories.CommunityRepository
	messageRepo   repositories.MessageRepository
	relay         *relay.Relay
	audit         *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(communityRepo repositories.CommunityRepository, messageRepo repositories.MessageRepository, r *relay.Relay, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		communityRepo: communityRepo,
		messageRepo:   messageRepo,
		relay:         r,
		audit:         audit,
	}
}

// GetChannelMessages returns a page of messages in a channel, newest first.
func (h *MessageHandler) GetChannelMessages(c *gin.Context) {
	channel, ok := h.requireChannelMember(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	beforeID, _ := strconv.Atoi(c.Query("before"))

	msgs, err := h.messageRepo.ListChannelMessages(c.Request.Context(), channel.ID, limit, beforeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChannelMessage stores a channel message and broadcasts it.
func (h *MessageHandler) PostChannelMessage(c *gin.Context) {
	channel, ok := h.requireChannelMember(c)
	if !ok {
		return
	}

	var req struct {
		Content     string   `json:"content" binding:"required"`
		ReplyTo     *int     `json:"reply_to"`
		Attachments []string `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), channel.ID, userID, req.Content, req.ReplyTo, req.Attachments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.broadcast(c, channel.ID, relay.TypeMessageCreated, relay.MessageCreated{
		ID:          strconv.Itoa(msg.ID),
		RoomID:      channelRoomID(channel.ID),
		Content:     msg.Content,
		ReplyTo:     replyToString(msg.ReplyToID),
		Attachments: msg.Attachments,
		Sender:      senderFromContext(c),
	})
	c.JSON(http.StatusCreated, msg)
}

// EditChannelMessage updates a message's content and broadcasts the edit.
func (h *MessageHandler) EditChannelMessage(c *gin.Context) {
	channel, ok := h.requireChannelMember(c)
	if !ok {
		return
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.messageRepo.EditMessage(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}
	if msg.ChannelID != channel.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to channel"})
		return
	}

	h.broadcast(c, channel.ID, relay.TypeMessageEdited, relay.MessageEdited{
		MessageID: strconv.Itoa(msg.ID),
		RoomID:    channelRoomID(channel.ID),
		Content:   msg.Content,
		Sender:    senderFromContext(c),
	})
	c.JSON(http.StatusOK, msg)
}

// DeleteChannelMessage soft-deletes a message and broadcasts the deletion.
func (h *MessageHandler) DeleteChannelMessage(c *gin.Context) {
	channel, ok := h.requireChannelMember(c)
	if !ok {
		return
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetString("userID")
	if err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		h.writeMessageError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "message deleted", requestIDFromContext(c), userIDFromContext(c))
	h.broadcast(c, channel.ID, relay.TypeMessageDeleted, relay.MessageDeleted{
		MessageID: strconv.Itoa(messageID),
		RoomID:    channelRoomID(channel.ID),
		Sender:    senderFromContext(c),
	})
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AddMessageReaction records a reaction and broadcasts it.
func (h *MessageHandler) AddMessageReaction(c *gin.Context) {
	channel, ok := h.requireChannelMember(c)
	if !ok {
		return
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.messageRepo.GetMessage(c.Request.Context(), messageID); err != nil {
		h.writeMessageError(c, err)
		return
	}

	userID := c.GetString("userID")
	reaction, err := h.messageRepo.AddReaction(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reaction"})
		return
	}

	h.broadcast(c, channel.ID, relay.TypeReactionAdded, relay.ReactionAdded{
		MessageID: strconv.Itoa(messageID),
		RoomID:    channelRoomID(channel.ID),
		Emoji:     reaction.Emoji,
		Sender:    senderFromContext(c),
	})
	c.JSON(http.StatusCreated, reaction)
}

func (h *MessageHandler) broadcast(c *gin.Context, channelID int, eventType string, payload any) {
	h.relay.Broadcast(channelRoomID(channelID), relay.NewServerEvent(eventType, payload))
}

func (h *MessageHandler) requireChannelMember(c *gin.Context) (models.Channel, bool) {
	channelID, err := strconv.Atoi(c.Param("channel_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return models.Channel{}, false
	}

	channel, err := h.communityRepo.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChannelNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "channel not found"})
		return models.Channel{}, false
	}

	userID := c.GetString("userID")
	member, err := h.communityRepo.IsMember(c.Request.Context(), channel.CommunityID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return models.Channel{}, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a community member"})
		return models.Channel{}, false
	}
	return channel, true
}

func (h *MessageHandler) writeMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case errors.Is(err, repositories.ErrNotMessageOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the message sender"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message update failed"})
	}
}

func senderFromContext(c *gin.Context) relay.Sender {
	identity, _ := identityFromContext(c)
	return relay.Sender{
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
	}
}

func replyToString(replyToID *int) string {
	if replyToID == nil {
		return ""
	}
	return strconv.Itoa(*replyToID)
}
