package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/topology"
)

func RoutesRouter(router fiber.Router, cache *topology.Cache) {
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		return getRoute(c, cache)
	})
	router.Get("/:identifier/stops", func(c *fiber.Ctx) error {
		return getRouteStops(c, cache)
	})
}

func getRoute(c *fiber.Ctx, cache *topology.Cache) error {
	route, err := cache.Route(c.Context(), c.Params("identifier"))
	if err != nil {
		return renderError(c, err)
	}

	return renderGroups(c, route, responseGroups(c)...)
}

func getRouteStops(c *fiber.Ctx, cache *topology.Cache) error {
	stops, err := cache.StopsOf(c.Context(), c.Params("identifier"))
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(stops)
}
