package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "spotinfo",
		Usage: "A Reddit bot that summarizes linked Spotify playlists",
		Description: `A bot that polls a subreddit for new submissions linking to
		Spotify playlists, fetches the playlist from the Spotify Web API
		and replies with a summary: length, follower count and the most
		popular tracks.

		Handled submissions are recorded in an SQLite database so the bot
		never replies to the same submission twice, even across restarts.

		Flags can generally be set via environment variables, e.g.:

		--config => SPOTINFO_CONFIG=config.toml
		--database => SPOTINFO_DATABASE=spotinfo.db
		`,
		Commands: []*cli.Command{
			runCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
