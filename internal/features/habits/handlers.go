package habits

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/purepath/recovery-backend/internal/authctx"
	"github.com/purepath/recovery-backend/internal/dto"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrHabitNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, ErrInvalidDate):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
}

func ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit id",
		})
	}
	return userID, habitID, nil
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	habits, err := h.service.List(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"habits": habits})
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	habit, err := h.service.Create(userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(habit)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	userID, habitID, err := ids(c)
	if err != nil {
		return err
	}

	var req UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	habit, err := h.service.Update(userID, habitID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(habit)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, habitID, err := ids(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(userID, habitID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Habit deleted"})
}

func (h *Handler) Toggle(c *fiber.Ctx) error {
	userID, habitID, err := ids(c)
	if err != nil {
		return err
	}

	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	habit, err := h.service.Toggle(userID, habitID, req.Date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(habit)
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	userID, habitID, err := ids(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(userID, habitID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}
