package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/fleetdf"
)

// Topology is the code-to-vehicle view of the topology cache.
type Topology interface {
	Resolve(ctx context.Context, otp string) (*fleetdf.Vehicle, error)
	IsValid(ctx context.Context, otp string) (bool, error)
	StopsOf(ctx context.Context, routeID string) ([]fleetdf.Stop, error)
}

func OTPRouter(router fiber.Router, topology Topology) {
	router.Get("/:otp", func(c *fiber.Ctx) error {
		return validateOTP(c, topology)
	})
	router.Get("/:otp/stops", func(c *fiber.Ctx) error {
		return getOTPStops(c, topology)
	})
}

func validateOTP(c *fiber.Ctx, topology Topology) error {
	valid, err := topology.IsValid(c.Context(), c.Params("otp"))
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid": valid,
	})
}

// getOTPStops is the passenger-facing stop listing: the code stands in for
// the vehicle so the route never has to be known client side.
func getOTPStops(c *fiber.Ctx, topology Topology) error {
	vehicle, err := topology.Resolve(c.Context(), c.Params("otp"))
	if err != nil {
		return renderError(c, err)
	}

	stops, err := topology.StopsOf(c.Context(), vehicle.RouteRef)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"vehicle_ref": vehicle.PrimaryIdentifier,
		"route_ref":   vehicle.RouteRef,
		"stops":       stops,
	})
}
