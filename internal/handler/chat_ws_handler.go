package handler

import (
	"os"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/service"
	internalWS "ai-companion-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChatWsHandler is the connection gateway: it authorizes a websocket
// attempt against a chat and hands the accepted connection to the hub.
type ChatWsHandler struct {
	hub    *internalWS.Hub
	relay  service.IRelayService
	chats  service.IChatService
	logger logger.ILogger
}

func NewChatWsHandler(hub *internalWS.Hub, relay service.IRelayService, chats service.IChatService, log logger.ILogger) *ChatWsHandler {
	return &ChatWsHandler{
		hub:    hub,
		relay:  relay,
		chats:  chats,
		logger: log,
	}
}

// ServeWs validates the handshake and upgrades. Refusals happen before the
// upgrade, so a rejected attempt never joins a group and never exchanges
// frames.
func (h *ChatWsHandler) ServeWs(c *fiber.Ctx) error {
	// 1. Token source. Priority 1: query param (browser standard).
	tokenStr := c.Query("token")

	// Priority 2: Authorization header (tooling standard).
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	// Anonymous attempts are refused unconditionally
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
		h.logger.Warn("ChatWsHandler", "Invalid token in handshake", map[string]interface{}{"error": err})
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

	// 2. Target chat must exist, be live and be owned by the caller
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}

	owned, err := h.chats.VerifyOwnership(c.UserContext(), chatID, userID)
	if err != nil {
		h.logger.Error("ChatWsHandler", "Ownership check failed", map[string]interface{}{
			"chat_id": chatID, "user_id": userID, "error": err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ownership check failed"})
	}
	if !owned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Chat not found or not yours"})
	}

	// 3. Upgrade and run the session
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatWsHandler", "Starting chat session", map[string]interface{}{
				"chat_id": chatID, "user_id": userID,
			})
			internalWS.ServeWs(h.hub, conn, h.relay, userID, chatID)
			h.logger.Info("ChatWsHandler", "Chat session ended", map[string]interface{}{
				"chat_id": chatID, "user_id": userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
