package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// ErrNoUser is returned when a connection is attempted without an authenticated user
var ErrNoUser = errors.New("websocket connection requires a user")

// ServeWS upgrades r and attaches the connection to userID's clients.
// It returns once the pumps are started; they stop when the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, userID string) error {
	if userID == "" {
		return ErrNoUser
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return err
	}

	logger := h.logger
	if logger == nil {
		logger = slog.Default()
	}

	client := NewClient(h, conn, userID, logger)
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()

	logger.Info("websocket connected",
		slog.String("user_id", userID),
		slog.String("remote_addr", r.RemoteAddr))
	return nil
}
