package groups

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

func fail(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMessageNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrForbidden),
		errors.Is(err, services.ErrMutedUser):
		status = fiber.StatusForbidden
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrAlreadyPending),
		errors.Is(err, ErrNoPendingReq), errors.Is(err, ErrOwnerLeave),
		errors.Is(err, ErrOwnerTarget), errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidEmoji), errors.Is(err, ErrRejected),
		errors.Is(err, ErrNotAuthor):
		status = fiber.StatusBadRequest
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Something went wrong",
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}

// ids pulls the caller id plus the :id route param; peer handles the
// repetitive unauthorized/bad-id responses.
func ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid group id",
		})
	}
	return userID, groupID, nil
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	group, err := h.service.Create(userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	groups, err := h.service.List(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (h *Handler) Get(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	group, members, pending, err := h.service.Get(userID, groupID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"group":    group,
		"members":  members,
		"requests": pending,
	})
}

func (h *Handler) Update(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	group, err := h.service.Update(userID, groupID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(group)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted"})
}

func (h *Handler) Join(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	member, err := h.service.Join(userID, groupID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *Handler) Leave(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	if err := h.service.Leave(userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left the group"})
}

func (h *Handler) memberAction(c *fiber.Ctx, action func(actor, group, target uuid.UUID) error, done string) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	var req MemberActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := action(userID, groupID, req.UserID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": done})
}

func (h *Handler) Accept(c *fiber.Ctx) error {
	return h.memberAction(c, h.service.AcceptRequest, "Request accepted")
}

func (h *Handler) Decline(c *fiber.Ctx) error {
	return h.memberAction(c, h.service.DeclineRequest, "Request declined")
}

func (h *Handler) Kick(c *fiber.Ctx) error {
	return h.memberAction(c, h.service.Kick, "Member removed")
}

func (h *Handler) Promote(c *fiber.Ctx) error {
	return h.memberAction(c, func(a, g, t uuid.UUID) error {
		return h.service.SetSupervisor(a, g, t, true)
	}, "Member promoted")
}

func (h *Handler) Demote(c *fiber.Ctx) error {
	return h.memberAction(c, func(a, g, t uuid.UUID) error {
		return h.service.SetSupervisor(a, g, t, false)
	}, "Member demoted")
}

// Open returns the message feed and clears the caller's unread flag in the
// same request.
func (h *Handler) Open(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	messages, err := h.service.ListMessages(userID, groupID)
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.Open(userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.service.SendMessage(userID, groupID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) EditMessage(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}
	messageID, err := uuid.Parse(c.Params("msgId"))
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

	msg, err := h.service.EditMessage(userID, groupID, messageID, req.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}
	messageID, err := uuid.Parse(c.Params("msgId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message id",
		})
	}

	if err := h.service.DeleteMessage(userID, groupID, messageID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *Handler) React(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}
	messageID, err := uuid.Parse(c.Params("msgId"))
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

	added, err := h.service.ToggleReaction(userID, groupID, messageID, req.Emoji)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"added": added})
}

func (h *Handler) Pin(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	var req PinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	group, err := h.service.PinMessage(userID, groupID, req.MessageID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(group)
}

func (h *Handler) Unpin(c *fiber.Ctx) error {
	userID, groupID, err := ids(c)
	if err != nil {
		return err
	}

	if err := h.service.Unpin(userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pin removed"})
}
