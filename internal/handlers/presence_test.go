package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prico-realtime/internal/presence"
)

func setupPresenceRouter(store presence.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth())
	r.GET("/presence", NewPresenceHandler(store).GetPresence)
	return r
}

func TestGetPresence(t *testing.T) {
	store := presence.NewMemoryStore()
	require.NoError(t, store.SetStatus(context.Background(), "user_a", presence.StatusAway))
	router := setupPresenceRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/presence?user_ids=user_a,user_b", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Presence map[string]presence.Status `json:"presence"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, presence.StatusAway, resp.Presence["user_a"])
	assert.Equal(t, presence.StatusOffline, resp.Presence["user_b"], "unknown users read as offline")
}

func TestGetPresenceRequiresUserIDs(t *testing.T) {
	router := setupPresenceRouter(presence.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/presence", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPresenceRejectsEmptyList(t *testing.T) {
	router := setupPresenceRouter(presence.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/presence?user_ids=,,", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
