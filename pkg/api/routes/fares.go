package routes

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/fares"
	"github.com/kbus/kbus/pkg/fleetdf"
)

// Quoter is satisfied by fares.Calculator.
type Quoter interface {
	Fare(ctx context.Context, routeID string, sourceRef string, destinationRef string) (*fares.Quote, error)
}

type fareRequest struct {
	// A passenger quotes against the code shown on the vehicle; route_ref is
	// the operator-side alternative
	OTP      string `json:"otp"`
	RouteRef string `json:"route_ref"`

	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func FaresRouter(router fiber.Router, topology Topology, calculator Quoter) {
	router.Post("/calculate", func(c *fiber.Ctx) error {
		return calculateFare(c, topology, calculator)
	})
}

func calculateFare(c *fiber.Ctx, topology Topology, calculator Quoter) error {
	var request fareRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Body must be a fare calculation request",
		})
	}

	routeRef := request.RouteRef

	if request.OTP != "" {
		vehicle, err := topology.Resolve(c.Context(), request.OTP)
		if err != nil {
			return renderError(c, err)
		}

		routeRef = vehicle.RouteRef
	}

	if routeRef == "" {
		return renderError(c, fmt.Errorf("%w: an otp or route_ref is required", fleetdf.ErrInvalidRequest))
	}

	quote, err := calculator.Fare(c.Context(), routeRef, request.Source, request.Destination)
	if err != nil {
		return renderError(c, err)
	}

	return renderGroups(c, quote, responseGroups(c)...)
}
