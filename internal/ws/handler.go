package ws

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// readHeadroom is allowed past maxBytes before the connection is dropped;
// frames in between get a PAYLOAD_TOO_LARGE reply.
const readHeadroom = 1 << 20

// Handler streams mood results: each binary message is one image, each reply
// one JSON Frame.
func Handler(hub *Hub, analyzer Analyzer, maxBytes int, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		c.SetReadLimit(int64(maxBytes + readHeadroom))

		client := NewClient(hub, c, analyzer, maxBytes, logger)
		if !hub.Register(client) {
			_ = c.Close()
			return
		}

		requestID, _ := c.Locals("requestid").(string)
		logger.Debug("stream session opened", slog.String("request_id", requestID))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go client.WritePump()
		client.ReadPump(ctx)
		<-client.closed

		logger.Debug("stream session closed", slog.String("request_id", requestID))
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
