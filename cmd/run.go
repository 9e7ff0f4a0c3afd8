package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"spotinfo/bot"
	"spotinfo/config"
	"spotinfo/db"
	"spotinfo/reddit"
	"spotinfo/server"
	"spotinfo/spotify"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the playlist summary bot",
		Description: `Starts the polling loop.

Runs database migrations, authenticates against Reddit and Spotify and
then polls the configured subreddit for new submissions until
interrupted. Missing or invalid configuration and authentication
failures are fatal; everything after startup is retried in place.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"SPOTINFO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Usage:   "Path to the SQLite database file (overrides config)",
				EnvVars: []string{"SPOTINFO_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Status server address (overrides config)",
				EnvVars: []string{"SPOTINFO_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write logs to this file",
				EnvVars: []string{"SPOTINFO_LOG_FILE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			setupLogging(ctx.String("log-file"))

			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			if v := ctx.String("database"); v != "" {
				cfg.Bot.Database = v
			}
			if v := ctx.String("listen"); v != "" {
				cfg.Bot.Listen = v
			}

			if err := db.Migrate(cfg.Bot.Database); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			store, err := db.NewStore(cfg.Bot.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
			defer stop()

			forum, err := reddit.NewClient(runCtx, reddit.Credentials{
				Username:     cfg.Reddit.Username,
				Password:     cfg.Reddit.Password,
				ClientID:     cfg.Reddit.ClientID,
				ClientSecret: cfg.Reddit.ClientSecret,
				UserAgent:    cfg.Reddit.UserAgent,
			})
			if err != nil {
				return err
			}

			playlists, err := spotify.NewClient(runCtx, spotify.Credentials{
				ClientID:     cfg.Spotify.ClientID,
				ClientSecret: cfg.Spotify.ClientSecret,
			})
			if err != nil {
				return err
			}

			if cfg.Bot.Listen != "" {
				app := server.Server(server.ServerConfig{Store: store})

				go func() {
					if err := app.Listen(cfg.Bot.Listen); err != nil {
						log.Errorf("Status server stopped: %v", err)
					}
				}()

				go func() {
					<-runCtx.Done()
					if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
						log.Errorf("Status server shutdown: %v", err)
					}
				}()
			}

			worker := bot.NewWorker(forum, playlists, store, cfg.Reddit.Subreddit, cfg.Bot.PollLimit)

			if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			fmt.Println("Done!")

			return nil
		},
	}
}

func setupLogging(logFile string) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	if logFile == "" {
		return
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warnf("Failed to open log file %s: %v", logFile, err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
}
