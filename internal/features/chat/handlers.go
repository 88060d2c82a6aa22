package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/authctx"
	"github.com/purepath/recovery-backend/internal/dto"
	"github.com/purepath/recovery-backend/internal/services"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func sendError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrInvalidEmoji),
		errors.Is(err, ErrEditWithReply), errors.Is(err, ErrRejected):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrMutedUser):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, ErrNotAuthor), errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, ErrMessageNotFound), errors.Is(err, ErrPeerNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound, err.Error()
	default:
		return fiber.StatusInternalServerError, "Something went wrong"
	}
}

func fail(c *fiber.Ctx, err error) error {
	status, msg := sendError(err)
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// ListMessages returns the public feed plus the current pin in one response,
// so the room renders from a single round trip.
func (h *Handler) ListMessages(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messages, err := h.service.ListPublic(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	pin, err := h.service.GetPin()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages, "pin": pin})
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.service.SendPublic(userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) EditMessage(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	var req EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.service.EditPublic(userID, messageID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	if err := h.service.DeletePublic(userID, messageID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *Handler) React(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	var req ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	added, err := h.service.ToggleReaction(userID, messageID, req.Emoji)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"added": added})
}

func (h *Handler) PinMessage(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req PinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	pin, err := h.service.PinMessage(userID, req.MessageID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pin)
}

func (h *Handler) Unpin(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.service.Unpin(userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pin removed"})
}

func (h *Handler) ListConversations(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	conversations, err := h.service.ListConversations(userID)
	if err != nil {
		return fail(c, err)
	}
	hasUnread, err := h.service.HasUnread(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations, "has_unread": hasUnread})
}

func (h *Handler) OpenConversation(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	peerID, err := uuid.Parse(c.Params("peer"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	if err := h.service.OpenConversation(userID, peerID); err != nil {
		return fail(c, err)
	}
	messages, err := h.service.ListPrivate(userID, peerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *Handler) SendPrivate(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	peerID, err := uuid.Parse(c.Params("peer"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	var req SendPrivateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.service.SendPrivate(userID, peerID, req.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) EditPrivate(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	var req SendPrivateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.service.EditPrivate(userID, messageID, req.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

func (h *Handler) DeletePrivate(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	if err := h.service.DeletePrivate(userID, messageID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *Handler) DeleteConversation(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	peerID, err := uuid.Parse(c.Params("peer"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	if err := h.service.DeleteConversation(userID, peerID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation removed"})
}
