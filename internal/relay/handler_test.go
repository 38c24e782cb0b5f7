package relay

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prico-realtime/internal/auth"
	"prico-realtime/internal/presence"
)

var gatewayTestKey = []byte("gateway-test-key")

func newGatewayServer(t *testing.T) (*httptest.Server, *Relay) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.New(io.Discard, "", 0)
	r := NewRelay(logger, presence.NewMemoryStore(), time.Minute)
	go r.Run()

	handler := NewGatewayHandler(r, auth.NewJWTVerifier(gatewayTestKey), logger)
	router := gin.New()
	router.GET("/ws", handler.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, r
}

func signGatewayToken(t *testing.T, userID, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(gatewayTestKey)
	require.NoError(t, err)
	return signed
}

func dialGateway(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	frame := map[string]any{"type": eventType, "data": data}
	require.NoError(t, conn.WriteJSON(frame))
}

// readUntil reads frames until one of the wanted type arrives, skipping
// interleaved events like membership announcements.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == eventType {
			return frame.Data
		}
	}
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	server, _ := newGatewayServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatewayRejectsInvalidToken(t *testing.T) {
	server, _ := newGatewayServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatewayAcceptsBearerHeader(t *testing.T) {
	server, _ := newGatewayServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + signGatewayToken(t, "user_a", "alice")}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestRelayOverWebsocket(t *testing.T) {
	server, _ := newGatewayServer(t)

	alice := dialGateway(t, server, signGatewayToken(t, "user_a", "alice"))
	bob := dialGateway(t, server, signGatewayToken(t, "user_b", "bob"))

	sendFrame(t, alice, TypeJoinRoom, JoinRoom{RoomID: "channel:1"})
	// Reading back her own message confirms Alice's join was processed
	// before Bob's arrives.
	sendFrame(t, alice, TypeSendMessage, SendMessage{RoomID: "channel:1", Content: "ping"})
	readUntil(t, alice, TypeMessageCreated)

	sendFrame(t, bob, TypeJoinRoom, JoinRoom{RoomID: "channel:1"})

	// Alice sees Bob arrive.
	var joined MembershipChanged
	require.NoError(t, json.Unmarshal(readUntil(t, alice, TypeUserJoined), &joined))
	assert.Equal(t, "user_b", joined.Sender.UserID)

	sendFrame(t, bob, TypeSendMessage, SendMessage{RoomID: "channel:1", Content: "hello room"})

	var got MessageCreated
	require.NoError(t, json.Unmarshal(readUntil(t, alice, TypeMessageCreated), &got))
	assert.Equal(t, "hello room", got.Content)
	assert.Equal(t, "user_b", got.Sender.UserID)
	assert.True(t, strings.HasPrefix(got.ID, "msg_"))

	// The sender receives its own message with the assigned id.
	var echo MessageCreated
	require.NoError(t, json.Unmarshal(readUntil(t, bob, TypeMessageCreated), &echo))
	assert.Equal(t, got.ID, echo.ID)
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	server, _ := newGatewayServer(t)

	alice := dialGateway(t, server, signGatewayToken(t, "user_a", "alice"))

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, alice, TypeError), &errPayload))
	assert.Equal(t, CodeInvalidEvent, errPayload.Code)

	// Connection survives the bad frame.
	sendFrame(t, alice, TypeJoinRoom, JoinRoom{RoomID: "channel:9"})
	sendFrame(t, alice, TypeSendMessage, SendMessage{RoomID: "channel:9", Content: "still here"})

	var got MessageCreated
	require.NoError(t, json.Unmarshal(readUntil(t, alice, TypeMessageCreated), &got))
	assert.Equal(t, "still here", got.Content)
}

func TestUnknownEventReportedToSender(t *testing.T) {
	server, _ := newGatewayServer(t)

	alice := dialGateway(t, server, signGatewayToken(t, "user_a", "alice"))
	sendFrame(t, alice, "time-travel", map[string]any{"roomId": "channel:1"})

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, alice, TypeError), &errPayload))
	assert.Equal(t, CodeInvalidEvent, errPayload.Code)
}
