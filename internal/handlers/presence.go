package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prico-realtime/internal/presence"
)

// PresenceHandler exposes read access to user presence.
type PresenceHandler struct {
	store presence.Store
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(store presence.Store) *PresenceHandler {
	return &PresenceHandler{store: store}
}

// GetPresence returns the current status for the requested users. Users
// with no stored status come back as offline.
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	raw := c.Query("user_ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	userIDs := make([]string, 0, 8)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			userIDs = append(userIDs, id)
		}
	}
	if len(userIDs) == 0 || len(userIDs) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "between 1 and 100 user ids expected"})
		return
	}

	statuses, err := h.store.GetStatuses(c.Request.Context(), userIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"presence": statuses})
}
