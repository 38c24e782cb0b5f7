package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prico-realtime/internal/repositories"
	"prico-realtime/internal/telemetry"
)

// CommunityHandler manages community and channel endpoints.
type CommunityHandler struct {
	communityRepo repositories.CommunityRepository
	audit         *telemetry.AuditEmitter
}

// NewCommunityHandler builds a CommunityHandler.
func NewCommunityHandler(communityRepo repositories.CommunityRepository, audit *telemetry.AuditEmitter) *CommunityHandler {
	return &CommunityHandler{communityRepo: communityRepo, audit: audit}
}

// CreateCommunity creates a community owned by the caller.
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Slug        string `json:"slug" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	community, err := h.communityRepo.CreateCommunity(c.Request.Context(), req.Name, req.Slug, req.Description, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create community"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "community created", requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, community)
}

// ListCommunities returns the communities the caller belongs to.
func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	userID := c.GetString("userID")

	communities, err := h.communityRepo.ListCommunitiesForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load communities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

// JoinCommunity adds the caller to a community.
func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	communityID, err := strconv.Atoi(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if _, err := h.communityRepo.GetCommunity(c.Request.Context(), communityID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCommunityNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "community not found"})
		return
	}

	userID := c.GetString("userID")
	if err := h.communityRepo.AddMember(c.Request.Context(), communityID, userID, "member"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join community"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

// LeaveCommunity removes the caller from a community.
func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	communityID, err := strconv.Atoi(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	userID := c.GetString("userID")
	if err := h.communityRepo.RemoveMember(c.Request.Context(), communityID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave community"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "member left community", requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// ListMembers returns a community's members. Members only.
func (h *CommunityHandler) ListMembers(c *gin.Context) {
	communityID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	members, err := h.communityRepo.ListMembers(c.Request.Context(), communityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// CreateChannel adds a channel to a community. Members only.
func (h *CommunityHandler) CreateChannel(c *gin.Context) {
	communityID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
		Kind string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind == "" {
		req.Kind = "text"
	}

	channel, err := h.communityRepo.CreateChannel(c.Request.Context(), communityID, req.Name, req.Kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create channel"})
		return
	}

	c.JSON(http.StatusCreated, channel)
}

// ListChannels returns a community's channels. Members only.
func (h *CommunityHandler) ListChannels(c *gin.Context) {
	communityID, ok := h.requireMembership(c)
	if !ok {
		return
	}

	channels, err := h.communityRepo.ListChannels(c.Request.Context(), communityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load channels"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *CommunityHandler) requireMembership(c *gin.Context) (int, bool) {
	communityID, err := strconv.Atoi(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return 0, false
	}

	userID := c.GetString("userID")
	member, err := h.communityRepo.IsMember(c.Request.Context(), communityID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return 0, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a community member"})
		return 0, false
	}
	return communityID, true
}
