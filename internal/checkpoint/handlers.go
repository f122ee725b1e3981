package checkpoint

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-zodiack/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Checkpoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.CreatedBy, _ = c.Locals("user_id").(string)

		cp, err := svc.Create(c.Context(), req)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(cp)
	})

	r.Get("/trip/:tripID", authMiddleware, func(c *fiber.Ctx) error {
		checkpoints, err := svc.ListByTrip(c.Context(), c.Params("tripID"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(checkpoints)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		cp, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(cp)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Checkpoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cp, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(cp)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/checkin", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)

		ci, err := svc.CheckIn(c.Context(), c.Params("id"), userID, body.Lat, body.Lng)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(ci)
	})

	r.Get("/:id/checkins", authMiddleware, func(c *fiber.Ctx) error {
		checkins, err := svc.CheckIns(c.Context(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(checkins)
	})

	r.Get("/:id/missing", authMiddleware, func(c *fiber.Ctx) error {
		missing, err := svc.Missing(c.Context(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(fiber.Map{"missing": missing})
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
