package controller

import (
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/pkg/serverutils"
	"ai-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	SelectSession(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	UpdateFeedback(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	ArchiveSession(ctx *fiber.Ctx) error
	UnarchiveSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ShareSession(ctx *fiber.Ctx) error
	ExportSession(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
	GetStarterPrompts(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{
		chatbotService: chatbotService,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/state", c.GetState)
	h.Get("/prompts", c.GetStarterPrompts)
	h.Post("/session", c.CreateSession)
	h.Get("/session", c.GetAllSessions)
	h.Get("/session/:id/messages", c.GetChatHistory)
	h.Post("/session/:id/select", c.SelectSession)
	h.Patch("/session/:id/title", c.RenameSession)
	h.Post("/session/:id/archive", c.ArchiveSession)
	h.Post("/session/:id/unarchive", c.UnarchiveSession)
	h.Get("/session/:id/share", c.ShareSession)
	h.Get("/session/:id/export", c.ExportSession)
	h.Delete("/session/:id", c.DeleteSession)
	h.Post("/chat", c.SendChat)
	h.Post("/message/:id/feedback", c.UpdateFeedback)
}

func currentUserId(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	res, err := c.chatbotService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat session", res))
}

func (c *chatbotController) GetAllSessions(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.GetAllSessionsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.chatbotService.GetAllSessions(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chat sessions", res))
}

func (c *chatbotController) GetChatHistory(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.GetChatHistory(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatbotController) SelectSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatbotService.SelectSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success select chat session", nil))
}

func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatbotService.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Message accepted, reply pending", res))
}

func (c *chatbotController) UpdateFeedback(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	messageId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.UpdateFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.MessageId = messageId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatbotService.UpdateFeedback(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update feedback", res))
}

func (c *chatbotController) RenameSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatbotService.RenameSession(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success rename chat session", nil))
}

func (c *chatbotController) ArchiveSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatbotService.ArchiveSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success archive chat session", nil))
}

func (c *chatbotController) UnarchiveSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatbotService.UnarchiveSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success unarchive chat session", nil))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatbotService.DeleteSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat session", nil))
}

func (c *chatbotController) ShareSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.ShareSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success share chat session", res))
}

func (c *chatbotController) ExportSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.ExportSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		// Nothing to export
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success export chat session", res))
}

func (c *chatbotController) GetState(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	res, err := c.chatbotService.GetState(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat state", res))
}

func (c *chatbotController) GetStarterPrompts(ctx *fiber.Ctx) error {
	res := c.chatbotService.GetStarterPrompts(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success get starter prompts", res))
}
