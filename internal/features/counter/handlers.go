package counter

import (
	"errors"
	"strconv"

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
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, ErrEntryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrUnknownBadge),
		errors.Is(err, ErrCounterNotRunning):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Something went wrong",
		})
	}
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	return userID, nil
}

func (h *Handler) Status(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	status, err := h.service.Status(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

func (h *Handler) Start(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	status, err := h.service.Start(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

func (h *Handler) Reset(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	status, err := h.service.Reset(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

func (h *Handler) Badges(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	badges, err := h.service.Badges(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"badges": badges})
}

func (h *Handler) Celebrate(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var req CelebrateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.service.Celebrate(c.Context(), userID, req.Key); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Badge celebrated"})
}

func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	entries, err := h.service.Leaderboard(limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"leaderboard": entries})
}

func (h *Handler) Next(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	content, err := h.service.Next(userID, c.Params("kind"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(content)
}

// --- Admin ---

func (h *Handler) ListEntries(c *fiber.Ctx) error {
	entries, err := h.service.ListEntries(c.Query("kind", ""))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *Handler) CreateEntry(c *fiber.Ctx) error {
	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	entry, err := h.service.CreateEntry(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *Handler) DeleteEntry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid entry id",
		})
	}

	if err := h.service.DeleteEntry(id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Entry deleted"})
}
