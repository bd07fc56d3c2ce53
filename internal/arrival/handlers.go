package arrival

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, detector *Detector, authMiddleware fiber.Handler) {
	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Lat  float64 `json:"lat"`
			Lng  float64 `json:"lng"`
			Name string  `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		userID, _ := c.Locals("user_id").(string)
		detector.SetDestination(userID, body.Lat, body.Lng, body.Name)
		return c.JSON(detector.Status(userID))
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		detector.ClearDestination(userID)
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(detector.Status(userID))
	})
}
