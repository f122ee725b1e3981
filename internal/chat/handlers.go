package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-zodiack/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/trips/:id/messages", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Body string `json:"body"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)

		msg, err := svc.Post(c.Context(), c.Params("id"), userID, body.Body)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	r.Get("/trips/:id/messages", authMiddleware, func(c *fiber.Ctx) error {
		messages, err := svc.History(c.Context(), c.Params("id"), c.QueryInt("limit"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(messages)
	})

	r.Post("/messages/:id/attachments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			URL string `json:"url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		att, err := svc.AddAttachment(c.Context(), c.Params("id"), body.URL)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(att)
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
