package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans out server events (assistant replies, generation failures) to
// the websocket clients of a user. With Redis configured, events reach
// clients connected to other instances through a shared pub/sub channel.
type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
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
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			// Sole owner of close(client.Send). Delivery paths only request
			// unregistration, so a client dropped twice is closed once.
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliver pushes data to every connection the user has. Sends happen under
// the read lock while Run closes channels under the write lock, so a client
// still present in the map cannot have a closed Send channel.
func (h *Hub) deliver(userID uuid.UUID, data []byte) {
	var dropped []*Client
	h.mu.RLock()
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()
	h.drop(dropped)
}

func (h *Hub) deliverAll(data []byte) {
	var dropped []*Client
	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				dropped = append(dropped, client)
			}
		}
	}
	h.mu.RUnlock()
	h.drop(dropped)
}

// drop hands slow clients to the Run loop, which owns the close. Must be
// called without h.mu held, the unregister handler takes the write lock.
func (h *Hub) drop(clients []*Client) {
	for _, client := range clients {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
		h.unregister <- client
	}
}

func (h *Hub) clientsFor(userID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Client(nil), h.clients[userID]...)
}

// Send delivers an event to every connection the user has, locally and via
// Redis to other instances.
func (h *Hub) Send(userID uuid.UUID, eventType string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})

	h.deliver(userID, data)

	// Always publish for multi-device / multi-instance delivery
	if h.rdb != nil {
		envelope := map[string]interface{}{
			"target_user_id": userID.String(),
			"message":        data,
		}
		jsonEnvelope, _ := json.Marshal(envelope)
		h.rdb.Publish(context.Background(), "cluster_events", jsonEnvelope)
	}
}

// Broadcast sends an event to ALL connected clients.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})

	h.deliverAll(data)

	if h.rdb != nil {
		envelope := map[string]interface{}{
			"target_user_id": "*", // Wildcard for broadcast
			"message":        data,
		}
		jsonEnvelope, _ := json.Marshal(envelope)
		h.rdb.Publish(context.Background(), "cluster_events", jsonEnvelope)
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "cluster_events". When a message arrives,
	// each instance checks whether the target user is connected locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.TargetUserID == "*" {
			h.deliverAll(payload.Message)
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.deliver(uid, payload.Message)
	}
}
