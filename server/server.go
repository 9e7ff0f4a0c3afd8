package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// SeenCounter is the slice of the store the status server reads
type SeenCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ServerConfig struct {
	Store SeenCounter
}

// Server builds the status app: health and stats for operators plus
// the Prometheus exposition endpoint.
func Server(config ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	started := time.Now()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		count, err := config.Store.Count(c.Context())
		if err != nil {
			log.Errorf("Failed to count seen submissions: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read stats",
			})
		}

		return c.JSON(fiber.Map{
			"seenSubmissions": count,
			"uptimeSeconds":   int64(time.Since(started).Seconds()),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}
