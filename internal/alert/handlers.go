package alert

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, d *Dispatcher, authMiddleware fiber.Handler) {
	r.Post("/trigger", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Message string `json:"message"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		userID, _ := c.Locals("user_id").(string)
		result, err := d.Trigger(c.Context(), userID, body.Message)
		if errors.Is(err, ErrNoContactsConfigured) {
			return fiber.NewError(fiber.StatusPreconditionFailed, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		alerts, err := d.History(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(alerts)
	})
}
