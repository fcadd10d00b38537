package ws

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ocula-id/ocula/internal/facedetect"
)

// Handler upgrades the request and runs the capture stream until the
// connection closes. The face detector and verifier are shared across
// connections; all per-session state lives on the Stream.
func Handler(faces *facedetect.Detector, verifier Verifier, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		stream := newStream(c, faces, verifier, logger)
		go stream.WritePump()
		stream.ReadPump(context.Background())
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
