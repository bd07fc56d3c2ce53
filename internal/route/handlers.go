package route

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, registry *Registry, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := registry.Start(userID); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(registry.Tracker(userID).Snapshot())
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		registry.Stop(userID)
		return c.JSON(registry.Tracker(userID).Snapshot())
	})

	r.Post("/clear", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		registry.Tracker(userID).Clear()
		return c.JSON(registry.Tracker(userID).Snapshot())
	})

	r.Get("/stats", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(registry.Tracker(userID).Snapshot())
	})

	r.Get("/points", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(registry.Tracker(userID).Points())
	})
}
