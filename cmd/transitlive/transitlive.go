package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/api"
	"github.com/transitlive/transitlive/pkg/bridge"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRANSITLIVE_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRANSITLIVE_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "transitlive",
		Description: "Bridges SIRI realtime feeds into periodically rebuilt GTFS-RT snapshots",

		Commands: []*cli.Command{
			bridge.RegisterCLI(api.SetupServer),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
