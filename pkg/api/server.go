package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/api/routes"
	"github.com/kbus/kbus/pkg/fares"
	"github.com/kbus/kbus/pkg/tickets"
	"github.com/kbus/kbus/pkg/topology"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/kbus/kbus/pkg/trips"
)

// Dependencies is the wired engine behind the web API.
type Dependencies struct {
	Cache      *topology.Cache
	Calculator *fares.Calculator

	Tracker   *tracker.Tracker
	Publisher *tracker.Publisher

	Manager  *trips.Manager
	Resolver *trips.Resolver

	Booker      *tickets.Booker
	TicketStore tickets.Store
}

func SetupServer(listen string, deps Dependencies) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.OTPRouter(group.Group("/otp"), deps.Cache)
	routes.RoutesRouter(group.Group("/routes"), deps.Cache)

	routes.FaresRouter(group.Group("/fares"), deps.Cache, deps.Calculator)

	routes.VehiclesRouter(group.Group("/vehicles", EnsureValidToken()), deps.Tracker, deps.Manager, deps.Resolver)
	routes.TripsRouter(group.Group("/trips"), deps.Manager)

	routes.TicketsRouter(group.Group("/tickets", EnsureValidToken()), deps.Booker, deps.TicketStore)
	routes.AccountsRouter(group.Group("/accounts", EnsureValidToken()), deps.TicketStore)

	routes.TelemetryRouter(group.Group("/telemetry", EnsureValidToken()), deps.Publisher)

	return webApp.Listen(listen)
}
