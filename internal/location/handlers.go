package location

import (
	"backend-safetrail/internal/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, provider *Provider, authMiddleware fiber.Handler) {
	r.Put("/permission", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			State string `json:"state"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		state, err := ParsePermissionState(body.State)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		provider.SetPermission(userID, state)
		return c.JSON(fiber.Map{"state": state})
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix geo.Fix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		provider.Deliver(userID, fix)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/status", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{
			"permission": provider.Permission(userID),
			"streaming":  provider.Streaming(userID),
		})
	})
}
