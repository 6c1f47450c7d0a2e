package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/vedhub/mailsync/internal/services"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe      MessageType = "subscribe"
	MessageTypeUnsubscribe    MessageType = "unsubscribe"
	MessageTypeSyncCompleted  MessageType = "sync_completed"
	MessageTypeMessageChanged MessageType = "message_changed"
	MessageTypeError          MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    MessageType `json:"type"`
	Scope   string      `json:"scope,omitempty"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SyncCompletedPayload is pushed after a pass that changed the mirror
type SyncCompletedPayload struct {
	Scope          string `json:"scope"`
	NewCount       int    `json:"newCount"`
	UpdatedCount   int    `json:"updatedCount"`
	TotalProcessed int    `json:"totalProcessed"`
}

// Hub maintains the set of active clients per user and pushes mailbox events to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients per authenticated user
	users map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Scope subscription changes
	subscribe chan *subscriptionRequest

	// Events addressed to one user
	broadcast chan *broadcastMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	scope  string
	add    bool
}

type broadcastMessage struct {
	userID  string
	scope   string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan *subscriptionRequest),
		broadcast:  make(chan *broadcastMessage, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.String("user_id", client.userID))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if conns, ok := h.users[client.userID]; ok {
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.users, client.userID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.String("user_id", client.userID))
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if req.add {
				req.client.scopes[req.scope] = true
			} else {
				delete(req.client.scopes, req.scope)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.users[msg.userID] {
				if !client.wants(msg.scope) {
					continue
				}
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe limits a client's sync events to the given scope (and any others it subscribed to)
func (h *Hub) Subscribe(client *Client, scope string) {
	h.subscribe <- &subscriptionRequest{client: client, scope: scope, add: true}
}

// Unsubscribe removes a scope from a client's subscriptions
func (h *Hub) Unsubscribe(client *Client, scope string) {
	h.subscribe <- &subscriptionRequest{client: client, scope: scope, add: false}
}

// ClientCount returns the number of connections a user has open
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// NotifySyncCompleted pushes a pass summary to the user's clients subscribed to scope
func (h *Hub) NotifySyncCompleted(userID, scope string, summary services.Summary) {
	h.send(userID, scope, WSMessage{
		Type:  MessageTypeSyncCompleted,
		Scope: scope,
		Message: &SyncCompletedPayload{
			Scope:          scope,
			NewCount:       summary.NewCount,
			UpdatedCount:   summary.UpdatedCount,
			TotalProcessed: summary.TotalProcessed,
		},
	})
}

// NotifyMessageChanged pushes an applied action to all of the user's clients
func (h *Hub) NotifyMessageChanged(userID string, change services.MessageChange) {
	h.send(userID, "", WSMessage{
		Type:    MessageTypeMessageChanged,
		Message: change,
	})
}

func (h *Hub) send(userID, scope string, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{userID: userID, scope: scope, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("broadcast queue full, dropping event",
				slog.String("user_id", userID),
				slog.String("type", string(msg.Type)))
		}
	}
}

var _ services.Notifier = (*Hub)(nil)
