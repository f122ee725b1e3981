package notify

import (
	"errors"

	"backend-zodiack/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		record, err := svc.Notify(c.Context(), in)
		if err != nil {
			return translate(err)
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		out, err := svc.List(c.Context(), userID)
		if err != nil {
			return translate(err)
		}
		return c.JSON(out)
	})

	r.Patch("/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.MarkRead(c.Context(), c.Params("id")); err != nil {
			return translate(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func translate(err error) *fiber.Error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
