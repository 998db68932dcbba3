package handler

import (
	"os"
	"time"

	"ai-assistant-be/internal/pkg/logger"
	internalWS "ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/events"
	pktNats "ai-assistant-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StreamHandler upgrades clients to the event stream. Assistant replies and
// generation failures are pushed through this channel.
type StreamHandler struct {
	publisher *pktNats.Publisher
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewStreamHandler(pub *pktNats.Publisher, hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		publisher: pub,
		hub:       hub,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: Query Param (Browser standard)
	tokenStr := c.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		h.logger.Warn("StreamHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(c *websocket.Conn) {
			h.logger.Info("StreamHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, c, userID)
			h.logger.Info("StreamHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// DebugTriggerEvent simulates an event to test the delivery flow.
func (h *StreamHandler) DebugTriggerEvent(c *fiber.Ctx) error {
	type Request struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Type == "" {
		req.Type = "TEST_EVENT"
	}
	if req.Payload == nil {
		req.Payload = make(map[string]interface{})
	}

	if _, ok := req.Payload["user_id"]; !ok {
		if uid := c.Locals("user_id"); uid != nil {
			req.Payload["user_id"] = uid
		}
	}

	evt := events.BaseEvent{
		Type:       req.Type,
		Data:       req.Payload,
		OccurredAt: time.Now(),
	}

	if h.publisher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Event publisher not configured"})
	}

	if err := h.publisher.Publish(c.UserContext(), evt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "Event Published", "event": evt})
}

// RegisterRoutes registers the stream routes.
func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	debug := router.Group("/debug")
	debug.Post("/trigger-event", h.DebugTriggerEvent)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}
