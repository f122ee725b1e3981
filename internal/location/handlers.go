package location

import (
	"errors"
	"time"

	"backend-zodiack/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, defaultWindow time.Duration, authMiddleware fiber.Handler) {
	r.Post("/request", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID      string `json:"user_id"`
			RequestedBy string `json:"requested_by"`
			Window      any    `json:"window"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}

		window := defaultWindow
		if body.Window != nil {
			parsed, err := ParseWindow(body.Window)
			if err != nil {
				return statusError(err)
			}
			window = parsed
		}

		if err := svc.RequestTracking(c.Context(), body.UserID, body.RequestedBy, window); err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"user_id": body.UserID, "window": window.String()})
	})

	r.Post("/:userID/samples", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := svc.RecordSample(c.Context(), c.Params("userID"), body.Latitude, body.Longitude)
		if err != nil {
			return statusError(err)
		}
		if result.Stopped {
			return c.JSON(fiber.Map{"tracking_enabled": false, "stopped": true})
		}
		return c.Status(fiber.StatusCreated).JSON(result.Sample)
	})

	r.Patch("/:userID/window", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Delta any `json:"delta"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		delta, err := svc.ExtendWindow(c.Context(), c.Params("userID"), body.Delta)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(fiber.Map{"extended_by": delta.String()})
	})

	r.Post("/:userID/archive", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Archive(c.Context(), c.Params("userID")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		tracks, err := svc.AllTracked(c.Context())
		if err != nil {
			return statusError(err)
		}
		return c.JSON(tracks)
	})

	r.Delete("/:userID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("userID")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func statusError(err error) *fiber.Error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
