package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-companion-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries group events between instances when more than one
// relay process is deployed.
const clusterChannel = "chat_events"

// GroupKey derives the broadcast group name for a chat.
func GroupKey(chatId uuid.UUID) string {
	return "chat_" + chatId.String()
}

// Hub is the broadcast bus: a named-group fan-out over the connections of
// this process, bridged across processes through Redis pub/sub. Groups come
// into existence on first Join and vanish when their last member leaves;
// publishing to an unknown or empty group is a no-op.
type Hub struct {
	// Group key -> members connected to this instance
	groups map[string][]*Client

	register   chan *Client
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil in single-process runs
	rdb *redis.Client

	// Distinguishes our own Redis publishes from other instances'
	instanceId string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		groups:     make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.groups[client.GroupKey] = append(h.groups[client.GroupKey], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client joined group", map[string]interface{}{
				"group": client.GroupKey, "user_id": client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if members, ok := h.groups[client.GroupKey]; ok {
				for i, c := range members {
					if c == client {
						h.groups[client.GroupKey] = append(members[:i], members[i+1:]...)
						client.closeSend()
						break
					}
				}
				if len(h.groups[client.GroupKey]) == 0 {
					delete(h.groups, client.GroupKey)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client left group", map[string]interface{}{
				"group": client.GroupKey, "user_id": client.UserID,
			})
		}
	}
}

// Join adds a connection to its group, creating the group implicitly.
func (h *Hub) Join(c *Client) {
	h.register <- c
}

// Leave removes a connection from its group. Safe to call for a client that
// already left.
func (h *Hub) Leave(c *Client) {
	h.unregister <- c
}

// GroupSize reports how many connections on this instance are in the group.
func (h *Hub) GroupSize(groupKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupKey])
}

// clusterEnvelope wraps a serialized event for the Redis leg.
type clusterEnvelope struct {
	Origin  string          `json:"origin"`
	Group   string          `json:"group"`
	Message json.RawMessage `json:"message"`
}

// Publish delivers the event to every current member of the group,
// including the publisher's own connection, then forwards it to the other
// instances. Best-effort: zero members is not an error.
func (h *Hub) Publish(ctx context.Context, groupKey string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event", map[string]interface{}{
			"group": groupKey, "error": err.Error(),
		})
		return
	}

	h.fanOutLocal(groupKey, data)

	if h.rdb != nil {
		envelope, _ := json.Marshal(clusterEnvelope{
			Origin:  h.instanceId,
			Group:   groupKey,
			Message: data,
		})
		if err := h.rdb.Publish(ctx, clusterChannel, envelope).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{
				"group": groupKey, "error": err.Error(),
			})
		}
	}
}

func (h *Hub) fanOutLocal(groupKey string, data []byte) {
	h.mu.RLock()
	members := make([]*Client, len(h.groups[groupKey]))
	copy(members, h.groups[groupKey])
	h.mu.RUnlock()

	for _, client := range members {
		if !client.trySend(data) {
			// Slow consumer: drop the connection rather than block the fan-out
			h.logger.Warn("Hub", "Client send buffer full, dropping", map[string]interface{}{
				"group": groupKey, "user_id": client.UserID,
			})
			client.Close()
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Malformed cluster event", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Our own publishes already reached local members
		if envelope.Origin == h.instanceId {
			continue
		}
		h.fanOutLocal(envelope.Group, envelope.Message)
	}
}
