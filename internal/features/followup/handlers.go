package followup

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
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
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrFutureDate):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Something went wrong",
		})
	}
}

func (h *Handler) Record(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req LogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.service.Record(c.Context(), userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *Handler) ConfirmReset(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.service.ConfirmReset(c.Context(), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Counter reset"})
}

// Range defaults to the trailing 30 days.
func (h *Handler) Range(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	now := time.Now()
	from := c.Query("from", now.AddDate(0, 0, -30).Format(dateLayout))
	to := c.Query("to", now.Format(dateLayout))

	days, err := h.service.Range(userID, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"days": days})
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	stats, err := h.service.Stats(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}
