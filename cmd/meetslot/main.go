package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"meetslot/internal/config"
	"meetslot/internal/feed"
	"meetslot/internal/ics"
	appLog "meetslot/internal/log"
	"meetslot/internal/web"
)

const version = "0.3.0"

func main() {
	// .env is optional.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "meetslot",
		Usage:   "Find meeting slots for a day from attendees' calendars.",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
			queryCommand(),
			checkConfigCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("meetslot failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Sync()
}

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   "/etc/meetslot/config.yaml",
	Usage:   "Path to config file (created with defaults if missing)",
	EnvVars: []string{"MEETSLOT_CONFIG"},
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the feed refresh schedule.",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("listen") {
				conf.Listen = c.String("listen")
			}
			setupLogging(conf)

			appLog.Info("meetslot starting",
				"version", version,
				"listen", conf.Listen,
				"timezone", conf.Timezone,
				"refresh", conf.RefreshCron,
				"ics_count", len(conf.ICS),
				"max_events", conf.MaxEvents,
			)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loader, err := feed.NewLoader(conf, ics.NewFetcher(conf.CacheDir, nil))
			if err != nil {
				return err
			}

			refresher, err := feed.NewRefresher(conf.RefreshCron, loader.Location(), loader)
			if err != nil {
				return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
			}
			if len(conf.ICS) > 0 {
				refresher.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					refresher.Stop(stopCtx)
				}()
				// First warm-up in the background so startup is not blocked
				// by slow feeds.
				go func() {
					if err := loader.Warm(ctx); err != nil {
						appLog.Error("initial feed warm-up failed", err)
					}
				}()
			}

			if err := web.NewServer(conf, loader).Run(ctx); err != nil {
				return err
			}
			appLog.Info("meetslot exiting")
			return nil
		},
	}
}

func checkConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-config",
		Usage: "Load and validate the config file, then print a summary.",
		Flags: []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "listen:     %s\n", conf.Listen)
			fmt.Fprintf(w, "timezone:   %s\n", conf.Timezone)
			fmt.Fprintf(w, "refresh:    %s\n", conf.RefreshCron)
			fmt.Fprintf(w, "max_events: %d\n", conf.MaxEvents)
			for _, src := range conf.ICS {
				fmt.Fprintf(w, "feed:       %s (attendee %q)\n", src.SourceID(), src.Attendee)
			}
			fmt.Fprintln(w, "config OK")
			return nil
		},
	}
}

// loadConfig loads, applies environment overrides and validates.
func loadConfig(path string) (*config.Config, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := conf.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("config environment overrides: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setupLogging(conf *config.Config) {
	appLog.Setup(appLog.Options{
		Level:     appLog.ParseLevel(conf.Log.Level),
		File:      conf.Log.File,
		MaxSizeMB: conf.Log.MaxSizeMB,
		KeepDays:  conf.Log.KeepDays,
	})
}
