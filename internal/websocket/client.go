package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vedhub/mailsync/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Client is one authenticated user's WebSocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	logger *slog.Logger

	// Sync scopes the client asked for; empty means all. Guarded by hub.mu.
	scopes map[string]bool
}

// NewClient creates a new Client bound to userID
func NewClient(hub *Hub, conn *websocket.Conn, userID string, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
		logger: logger,
		scopes: make(map[string]bool),
	}
}

// UserID returns the user the connection belongs to
func (c *Client) UserID() string {
	return c.userID
}

// wants reports whether an event for scope should reach the client. Caller holds hub.mu.
func (c *Client) wants(scope string) bool {
	if scope == "" || len(c.scopes) == 0 {
		return true
	}
	return c.scopes[scope]
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.logger != nil {
					c.logger.Error("websocket read error", slog.String("user_id", c.userID), slog.Any("error", err))
				}
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (c *Client) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeSubscribe:
		if !validScope(msg.Scope) {
			c.sendError("scope must be mail or alerts")
			return
		}
		c.hub.Subscribe(c, msg.Scope)

	case MessageTypeUnsubscribe:
		if !validScope(msg.Scope) {
			c.sendError("scope must be mail or alerts")
			return
		}
		c.hub.Unsubscribe(c, msg.Scope)

	default:
		c.sendError("unknown message type")
	}
}

func validScope(scope string) bool {
	return scope == models.ScopeMail || scope == models.ScopeAlerts
}

// sendError sends an error message to the client
func (c *Client) sendError(errMsg string) {
	msg := WSMessage{
		Type:  MessageTypeError,
		Error: errMsg,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, skip
	}
}
