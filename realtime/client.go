package realtime

import (
	"encoding/json"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024
)

// registerMessage is the only client-sent message the server understands.
// A connection stays anonymous until it registers.
type registerMessage struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// Client represents one websocket connection
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// userID is set on register, guarded by hub.mu
	userID string

	send      chan []byte
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		conn: conn,
		hub:  hub,
		send: make(chan []byte, 16),
	}
}

// Run pumps messages until the connection dies. It blocks, callers run it
// from the HTTP handler goroutine.
func (c *Client) Run() {
	go c.writePumpSafe()
	c.readPump()
}

// Close unregisters the client and tears down the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("websocket read pump panic", "panic", r, "stack", string(debug.Stack()))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var msg registerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Event == "register" && msg.UserID != "" {
			c.hub.Register(msg.UserID, c)
		}
	}
}

func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("websocket write pump panic", "panic", r, "stack", string(debug.Stack()))
			c.Close()
		}
	}()
	c.writePump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
