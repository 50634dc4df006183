package handler

import (
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ChatHandler exposes the plain CRUD surface around chats. No concurrency
// hazards here; the relay and hub own the live path.
type ChatHandler struct {
	service   service.IChatService
	wsHandler *ChatWsHandler
}

func NewChatHandler(svc service.IChatService, wsHandler *ChatWsHandler) *ChatHandler {
	return &ChatHandler{
		service:   svc,
		wsHandler: wsHandler,
	}
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	userID, err := serverutils.UserIDFromCtx(c)
	if err != nil {
		return err
	}

	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	chat, err := h.service.CreateChat(c.UserContext(), userID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userID, err := serverutils.UserIDFromCtx(c)
	if err != nil {
		return err
	}

	chats, err := h.service.ListChats(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chats})
}

func (h *ChatHandler) UpdateChat(c *fiber.Ctx) error {
	userID, err := serverutils.UserIDFromCtx(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid chat ID")
	}

	var req dto.UpdateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	chat, err := h.service.UpdateChat(c.UserContext(), userID, chatID, &req)
	if err != nil {
		return err
	}
	return c.JSON(chat)
}

func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	userID, err := serverutils.UserIDFromCtx(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid chat ID")
	}

	if err := h.service.DeleteChat(c.UserContext(), userID, chatID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, err := serverutils.UserIDFromCtx(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid chat ID")
	}

	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid pagination parameters")
	}

	messages, err := h.service.ListMessages(c.UserContext(), userID, chatID, &page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messages})
}

// RegisterRoutes wires the chat surface. The websocket route does its own
// token handling because browsers cannot set headers on the handshake.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	chats := router.Group("/chatbot/chats")

	chats.Get("/:chatId/ws", h.wsHandler.ServeWs)

	chats.Use(serverutils.JwtMiddleware)
	chats.Post("/", h.CreateChat)
	chats.Get("/", h.ListChats)
	chats.Patch("/:id", h.UpdateChat)
	chats.Delete("/:id", h.DeleteChat)
	chats.Get("/:id/messages", h.ListMessages)
}
