package relay

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 256
)

// Client pumps one websocket connection: reads inbound frames into the
// relay and writes queued server events back out.
type Client struct {
	conn    *websocket.Conn
	relay   *Relay
	session *Session
	log     *log.Logger
	send    chan ServerEvent
	stop    chan struct{}
}

// NewClient wraps an upgraded connection. The caller attaches the client
// as the session's sink before registering the session.
func NewClient(conn *websocket.Conn, r *Relay, session *Session, logger *log.Logger) *Client {
	return &Client{
		conn:    conn,
		relay:   r,
		session: session,
		log:     logger,
		send:    make(chan ServerEvent, sendQueueSize),
		stop:    make(chan struct{}),
	}
}

// Queue enqueues an event for delivery, dropping it when the buffer is
// full so one slow client cannot stall a room.
func (c *Client) Queue(ev ServerEvent) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// WritePump serializes queued events onto the connection and keeps the
// connection alive with pings. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			payload, err := json.Marshal(ev)
			if err != nil {
				c.log.Printf("serialize event conn_id=%s: %v", c.session.ID, err)
				continue
			}
			if !c.write(websocket.TextMessage, payload) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.stop:
			return
		}
	}
}

// ReadPump decodes inbound frames and dispatches them to the relay.
// On exit it deregisters the session, which tears down room membership
// and pending typing timers in the same routine.
func (c *Client) ReadPump() {
	defer func() {
		c.relay.Deregister(c.session.ID)
		close(c.stop)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Printf("read conn_id=%s: %v", c.session.ID, err)
			}
			return
		}

		ev, err := DecodeClientEvent(raw)
		if err != nil {
			// Malformed events surface to the sender only; the
			// connection stays open.
			c.Queue(errInvalidEvent(err.Error()))
			continue
		}

		c.relay.Dispatch(c.session.ID, ev)
	}
}

func (c *Client) write(messageType int, payload []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.log.Printf("write conn_id=%s: %v", c.session.ID, err)
		}
		return false
	}
	return true
}
