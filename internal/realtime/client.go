package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collabwrite/collabwrite/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// full Quill snapshots ride inside save-document frames
	maxMessageSize = 1 << 20
)

// client is one live connection. Until a join succeeds it is unbound; after
// that it carries the (document, user, role) binding for its lifetime.
type client struct {
	gw        *Gateway
	conn      *websocket.Conn
	send      chan []byte
	sessionID string

	// identity taken from the access token at upgrade time, if one was
	// presented; otherwise from the join request.
	authedUserID   string
	authedUsername string

	// set on successful join, read only by the connection's own readPump
	joined     bool
	documentID string
	userID     string
	username   string
	canEdit    bool

	stopAutosave context.CancelFunc
	closeOnce    sync.Once
}

func (c *client) enqueue(env *Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		logger.Errorf("marshal %s event: %v", env.Event, err)
		return
	}
	select {
	case c.send <- b:
	default:
		logger.Debugf("dropping %s event for slow session %s", env.Event, c.sessionID)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump drains inbound frames and dispatches them one at a time, which is
// what preserves per-sender ordering end to end.
func (c *client) readPump() {
	defer c.gw.disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("session %s read error: %v", c.sessionID, err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.enqueue(&Envelope{Event: EventDocumentError, Error: "malformed event"})
			continue
		}
		c.gw.dispatch(c, &env)
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// pings. It exits when the send channel is closed or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
