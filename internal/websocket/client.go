package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// InboundHandler processes one user text frame for a chat.
type InboundHandler interface {
	HandleInbound(ctx context.Context, chatId, userId uuid.UUID, body string) error
}

// InboundFrame is the only frame shape clients may send.
type InboundFrame struct {
	Message string `json:"message"`
}

// Client is one live, authorized connection to a chat. It is a middleman
// between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Authenticated identity and the chat this connection watches.
	UserID uuid.UUID
	ChatID uuid.UUID

	// Broadcast group this client belongs to, GroupKey(ChatID).
	GroupKey string

	// Buffered channel of outbound frames.
	Send chan []byte

	// Relay turns inbound frames into store writes and publishes.
	Relay InboundHandler

	closeOnce sync.Once

	// sendMu serializes queueing against closeSend so a fan-out racing a
	// departure never hits a closed channel.
	sendMu     sync.Mutex
	sendClosed bool
}

// Close leaves the group and tears the connection down. Idempotent; runs on
// every exit path.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.Hub.Leave(c)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// trySend queues an outbound frame for the write pump. Reports false only
// for a live client with a full buffer; frames for a departed client are
// dropped silently, it just misses subsequent events.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// readPump pumps frames from the websocket connection into the relay.
func (c *Client) readPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID, "chat_id": c.ChatID, "error": err.Error(),
				})
			}
			break
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are dropped silently
			continue
		}

		// The relay validates, persists and dispatches generation without
		// blocking on it; errors are logged there and never sent back.
		_ = c.Relay.HandleInbound(context.Background(), c.ChatID, c.UserID, frame.Message)
	}
}

// writePump pumps events from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs runs the pumps for an already-authorized connection. It blocks
// until the connection drops, matching the fiber websocket handler contract.
func ServeWs(hub *Hub, conn *websocket.Conn, relay InboundHandler, userID, chatID uuid.UUID) {
	client := &Client{
		Hub:      hub,
		Conn:     conn,
		UserID:   userID,
		ChatID:   chatID,
		GroupKey: GroupKey(chatID),
		Send:     make(chan []byte, 256),
		Relay:    relay,
	}
	hub.Join(client)

	go client.writePump()
	client.readPump()
}
