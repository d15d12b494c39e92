package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/trips"
)

func TripsRouter(router fiber.Router, manager *trips.Manager) {
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		return getTrip(c, manager)
	})
}

func getTrip(c *fiber.Ctx, manager *trips.Manager) error {
	detail, err := manager.Detail(c.Context(), c.Params("identifier"))
	if err != nil {
		return renderError(c, err)
	}

	return renderGroups(c, detail, responseGroups(c)...)
}
