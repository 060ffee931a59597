package bridge

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/database"
	"github.com/transitlive/transitlive/pkg/feed"
	"github.com/transitlive/transitlive/pkg/livestate"
	"github.com/transitlive/transitlive/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI(startServer func(listen string, bridge *Bridge) error) *cli.Command {
	return &cli.Command{
		Name:  "bridge",
		Usage: "Ingests SIRI realtime data and republishes it as GTFS-RT snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the live-state bridge",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the feed server",
					},
					&cli.StringFlag{
						Name:  "sources",
						Value: "data/sources.yaml",
						Usage: "path to the upstream source registry",
					},
					&cli.DurationFlag{
						Name:  "rebuild-interval",
						Value: DefaultRebuildInterval,
						Usage: "cadence of the eviction and rebuild cycle",
					},
					&cli.DurationFlag{
						Name:  "stale-threshold",
						Value: livestate.DefaultStaleThreshold,
						Usage: "age beyond which canonical records are evicted",
					},
					&cli.Int64Flag{
						Name:  "mirror-max-entries",
						Value: livestate.DefaultMirrorMaxEntries,
						Usage: "per-class entry cap of the distributed mirror",
					},
					&cli.BoolFlag{
						Name:  "no-mirror",
						Usage: "disable the distributed mirror for single-instance deployments",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}

					sources, err := LoadSources(c.String("sources"))
					if err != nil {
						return err
					}

					var mirror *livestate.RedisMirror
					if !c.Bool("no-mirror") {
						mirror = livestate.NewRedisMirror(redis_client.Client, c.Int64("mirror-max-entries"))
					}

					store := livestate.NewStore(c.Duration("stale-threshold"), mirror)
					publisher := feed.NewPublisher()
					journeys := livestate.NewMongoJourneyLookup()

					bridge := New(store, publisher, mirror, journeys)

					if mirror != nil {
						if err := livestate.RestoreStore(store, mirror); err != nil {
							log.Error().Err(err).Msg("Failed to restore live state from mirror")
						}
					}

					if err := StartConsumers(bridge); err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					bridge.StartRebuildLoop(ctx, c.Duration("rebuild-interval"))

					poller := NewSourcePoller(bridge, sources)
					go poller.Run(ctx)

					go func() {
						if err := startServer(c.String("listen"), bridge); err != nil {
							log.Fatal().Err(err).Msg("Feed server failed")
						}
					}()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					cancel()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "tick",
				Usage: "run a single eviction and rebuild cycle against mirrored state",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}

					mirror := livestate.NewRedisMirror(redis_client.Client, livestate.DefaultMirrorMaxEntries)
					store := livestate.NewStore(livestate.DefaultStaleThreshold, nil)

					if err := livestate.RestoreStore(store, mirror); err != nil {
						return err
					}

					bridge := New(store, feed.NewPublisher(), mirror, livestate.NewMongoJourneyLookup())
					bridge.Tick(time.Now())

					return nil
				},
			},
		},
	}
}
