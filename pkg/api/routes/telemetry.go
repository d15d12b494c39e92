package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/tracker"
)

func TelemetryRouter(router fiber.Router, publisher *tracker.Publisher) {
	router.Post("/locations", func(c *fiber.Ctx) error {
		return publishLocations(c, publisher)
	})
}

// publishLocations enqueues a telemetry batch for the background consumers.
// Acceptance here only means queued, not applied.
func publishLocations(c *fiber.Ctx, publisher *tracker.Publisher) error {
	var events []tracker.LocationEvent
	if err := c.BodyParser(&events); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Body must be an array of location events",
		})
	}

	if err := publisher.Publish(events); err != nil {
		return renderError(c, err)
	}

	c.SendStatus(fiber.StatusAccepted)
	return c.JSON(fiber.Map{
		"queued": len(events),
	})
}
