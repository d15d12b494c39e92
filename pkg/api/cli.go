package api

import (
	"context"

	"github.com/kbus/kbus/pkg/database"
	"github.com/kbus/kbus/pkg/elastic_client"
	"github.com/kbus/kbus/pkg/fares"
	"github.com/kbus/kbus/pkg/redis_client"
	"github.com/kbus/kbus/pkg/tickets"
	"github.com/kbus/kbus/pkg/topology"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/kbus/kbus/pkg/trips"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "tariff",
						Usage: "path to a tariff override file",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					tariff, err := fares.LoadTariff(c.String("tariff"))
					if err != nil {
						return err
					}

					cache := topology.NewCache()
					cache.WarmUp(context.Background())

					trk := tracker.New(cache, tracker.NewMongoLocationStore(), nil)

					publisher, err := tracker.NewPublisher()
					if err != nil {
						return err
					}

					ticketStore := tickets.NewMongoStore()
					calculator := fares.NewCalculator(cache, tariff)

					manager := trips.NewManager(
						trk, cache,
						trips.NewMongoTripStore(), trips.NewMongoVehicleFlagStore(),
						ticketStore, nil,
					)
					resolver := trips.NewResolver(
						trk, cache,
						trips.NewMongoAssignmentStore(), trips.NewMongoRegistrationStore(),
					)

					booker := tickets.NewBooker(cache, calculator, ticketStore)

					return SetupServer(c.String("listen"), Dependencies{
						Cache:      cache,
						Calculator: calculator,

						Tracker:   trk,
						Publisher: publisher,

						Manager:  manager,
						Resolver: resolver,

						Booker:      booker,
						TicketStore: ticketStore,
					})
				},
			},
		},
	}
}
