package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kbus/kbus/pkg/api"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	godotenv.Load()

	if os.Getenv("KBUS_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("KBUS_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "kbus",
		Description: "Single binary of truth for kbus - runs all the services",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			tracker.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
