package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/kbus/kbus/pkg/trips"
)

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`

	RecordedAt time.Time `json:"recorded_at"`
}

func VehiclesRouter(router fiber.Router, trk *tracker.Tracker, manager *trips.Manager, resolver *trips.Resolver) {
	router.Post("/:identifier/location", func(c *fiber.Ctx) error {
		return reportLocation(c, trk)
	})
	router.Get("/:identifier/location", func(c *fiber.Ctx) error {
		return getLocation(c, trk)
	})

	router.Post("/:identifier/trip/start", func(c *fiber.Ctx) error {
		return startTrip(c, manager, resolver)
	})
	router.Post("/:identifier/trip/end", func(c *fiber.Ctx) error {
		return endTrip(c, manager, resolver)
	})
	router.Get("/:identifier/trip/summary", func(c *fiber.Ctx) error {
		return getTripSummary(c, manager)
	})
}

func reportLocation(c *fiber.Ctx, trk *tracker.Tracker) error {
	vehicleID := c.Params("identifier")

	var request locationRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Body must be a location report",
		})
	}

	location := fleetdf.Location{
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	}

	if err := trk.Report(c.Context(), vehicleID, location, request.Speed, request.RecordedAt); err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"accepted": true,
	})
}

func getLocation(c *fiber.Ctx, trk *tracker.Tracker) error {
	vehicleID := c.Params("identifier")

	state, err := trk.Snapshot(c.Context(), vehicleID)
	if err != nil {
		return renderError(c, err)
	}

	response := fiber.Map{
		"vehicle_ref": state.VehicleID,
		"route_ref":   state.RouteRef,
		"trip_active": state.TripActive,
	}

	if state.HasLocation {
		response["location"] = state.Location
		response["speed"] = state.Speed
		response["recorded_at"] = state.RecordedAt
	}

	if state.CurrentStopSequence != nil {
		response["current_stop_sequence"] = *state.CurrentStopSequence
	}

	estimate, err := trk.Estimate(c.Context(), vehicleID)
	if err != nil {
		return renderError(c, err)
	}
	if estimate != nil {
		response["estimate"] = estimate
	}

	return c.JSON(response)
}

// authoriseDriver checks the caller resolves to this vehicle before a trip
// transition is allowed.
func authoriseDriver(c *fiber.Ctx, resolver *trips.Resolver, vehicleID string) error {
	driverID := callerID(c)
	if driverID == "" {
		c.SendStatus(fiber.StatusUnauthorized)
		return c.JSON(fiber.Map{
			"error": "Caller identity is required",
		})
	}

	allowed, err := resolver.CanOperate(c.Context(), driverID, vehicleID)
	if err != nil {
		return renderError(c, err)
	}
	if !allowed {
		c.SendStatus(fiber.StatusForbidden)
		return c.JSON(fiber.Map{
			"error": "Caller does not operate this vehicle",
		})
	}

	return nil
}

func startTrip(c *fiber.Ctx, manager *trips.Manager, resolver *trips.Resolver) error {
	vehicleID := c.Params("identifier")

	if err := authoriseDriver(c, resolver, vehicleID); err != nil {
		return err
	}

	trip, err := manager.Start(c.Context(), vehicleID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(trip)
}

func endTrip(c *fiber.Ctx, manager *trips.Manager, resolver *trips.Resolver) error {
	vehicleID := c.Params("identifier")

	if err := authoriseDriver(c, resolver, vehicleID); err != nil {
		return err
	}

	trip, err := manager.End(c.Context(), vehicleID)
	if err != nil {
		return renderError(c, err)
	}

	if trip == nil {
		// Already idle
		return c.JSON(fiber.Map{
			"trip_active": false,
		})
	}

	return c.JSON(trip)
}

func getTripSummary(c *fiber.Ctx, manager *trips.Manager) error {
	summary, err := manager.Summary(c.Context(), c.Params("identifier"))
	if err != nil {
		return renderError(c, err)
	}

	return renderGroups(c, summary, responseGroups(c)...)
}
