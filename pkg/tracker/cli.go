package tracker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbus/kbus/pkg/database"
	"github.com/kbus/kbus/pkg/elastic_client"
	"github.com/kbus/kbus/pkg/redis_client"
	"github.com/kbus/kbus/pkg/topology"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "tracker",
		Usage: "Ingests location telemetry and tracks vehicle trips",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the telemetry queue consumers",
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

					cache := topology.NewCache()
					cache.WarmUp(context.Background())

					metrics := NewMetrics()
					tracker := New(cache, NewMongoLocationStore(), metrics)

					StartConsumers(tracker)

					StartStatsServer(metrics)

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
			{
				Name:      "inspect",
				Usage:     "dump the tracking state for a vehicle",
				ArgsUsage: "<vehicle id>",
				Action: func(c *cli.Context) error {
					vehicleID := c.Args().First()
					if vehicleID == "" {
						return errors.New("vehicle id is required")
					}

					if err := database.Connect(); err != nil {
						return err
					}

					registry := topology.Registry{}
					vehicle, err := registry.Vehicle(context.Background(), vehicleID)
					if err != nil {
						return err
					}

					location, err := NewMongoLocationStore().Location(context.Background(), vehicleID)
					if err != nil {
						return err
					}

					pretty.Println(vehicle)
					pretty.Println(location)

					return nil
				},
			},
		},
	}
}
