package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ValidateFunc reports whether a share token belongs to a live session.
type ValidateFunc func(token string) bool

func RegisterRoutes(r fiber.Router, hub *Hub, validate ValidateFunc) {
	r.Get("/ws/:token", websocket.New(func(c *websocket.Conn) {
		token := c.Params("token")
		if validate != nil && !validate(token) {
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown share token"))
			return
		}

		client := hub.Register(token)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		<-done
	}))
}
