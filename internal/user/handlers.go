package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-zodiack/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		u, err := svc.FindByID(c.Context(), userID)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(u)
	})

	r.Post("/me/push-tokens", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err != nil || body.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token required")
		}
		userID, _ := c.Locals("user_id").(string)
		if err := svc.AddPushToken(c.Context(), userID, body.Token); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/me/push-tokens", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err != nil || body.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token required")
		}
		userID, _ := c.Locals("user_id").(string)
		if err := svc.RemovePushToken(c.Context(), userID, body.Token); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
