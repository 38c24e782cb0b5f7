package relay

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"prico-realtime/internal/auth"
	"prico-realtime/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GatewayHandler authenticates websocket handshakes and hands accepted
// connections to the relay.
type GatewayHandler struct {
	relay    *Relay
	verifier auth.TokenVerifier
	log      *log.Logger
}

// NewGatewayHandler constructs a GatewayHandler.
func NewGatewayHandler(r *Relay, verifier auth.TokenVerifier, logger *log.Logger) *GatewayHandler {
	return &GatewayHandler{relay: r, verifier: verifier, log: logger}
}

// Handle performs the authenticated handshake. Connections without a
// valid bearer token are refused before the upgrade; there is no
// anonymous fallback.
func (h *GatewayHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("prico-realtime/relay").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	identity, err := h.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	session := NewSession(uuid.NewString(), identity, nil)
	client := NewClient(conn, h.relay, session, h.log)
	session.sink = client

	h.relay.Register(session)

	// Capture request attributes before the handler returns; the gin
	// context is recycled once Handle exits.
	meta := lifecycleMeta{
		requestID: observability.RequestIDFromRequest(c.Request),
		traceID:   span.SpanContext().TraceID().String(),
		deviceID:  observability.DeviceIDFromRequest(c.Request),
		ip:        observability.IPFromRequest(c.Request),
	}
	h.publishLifecycle(session, "ws_connect", meta, 0)

	go client.WritePump()
	go func() {
		client.ReadPump()
		h.publishLifecycle(session, "ws_disconnect", meta,
			time.Since(session.ConnectedAt).Milliseconds())
	}()
}

type lifecycleMeta struct {
	requestID string
	traceID   string
	deviceID  string
	ip        string
}

func (h *GatewayHandler) publishLifecycle(session *Session, event string, meta lifecycleMeta, durationMS int64) {
	headers := observability.BuildHeaders(meta.requestID, meta.traceID)
	err := observability.PublishEvent(context.Background(), "ws_events.relay", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     session.ID,
				"duration_ms": durationMS,
			},
			"identity": map[string]interface{}{
				"user_id":   session.Identity.UserID,
				"device_id": meta.deviceID,
				"ip":        meta.ip,
			},
		},
	}, headers)
	if err != nil {
		h.log.Printf("publish %s failed conn_id=%s: %v", event, session.ID, err)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
